package models

// ContrastAgent describes the injected contrast agent. It is only reported,
// never used by the analysis.
type ContrastAgent struct {
	// Name is the agent's commercial or chemical name
	Name string `json:"name"`

	// Dose is the administered dose in mmol/kg
	Dose float64 `json:"doseMmolPerKg"`
}

// FrameSource records where a time frame was loaded from
type FrameSource struct {
	// Index is the position of this frame in the time series
	Index int `json:"index"`

	// Filename is the path the frame was decoded from
	Filename string `json:"filename"`

	// Width and Height are the decoded frame dimensions in pixels
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Study groups the inputs of one perfusion analysis run
type Study struct {
	// Agent is the contrast agent metadata, if a metadata file was given
	Agent *ContrastAgent `json:"agent,omitempty"`

	// Frames lists the decoded frames in acquisition order
	Frames []FrameSource `json:"frames"`
}
