// Package report formats the outcome of an analysis run for people (text)
// and for other tools (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"contrastcurve/internal/models"
	"contrastcurve/pkg/analysis"
)

// Report is the JSON document written after a run.
type Report struct {
	RunID     string           `json:"runId"`
	CreatedAt time.Time        `json:"createdAt"`
	Study     models.Study     `json:"study"`
	Result    *analysis.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// New stamps a report with a fresh run ID.
func New(study models.Study, res *analysis.Result, runErr error) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Study:     study,
		Result:    res,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return r
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// SaveJSON writes the report to filename, creating parent directories.
func (r *Report) SaveJSON(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	if err := r.WriteJSON(file); err != nil {
		file.Close()
		return fmt.Errorf("error writing report: %w", err)
	}
	return file.Close()
}

// WriteText prints the contrast analysis summary.
func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintln(w, "--- Contrast Analysis ---")
	if a := r.Study.Agent; a != nil {
		fmt.Fprintf(w, "Contrast agent: %s, dose: %g mmol/kg\n", a.Name, a.Dose)
	}
	fmt.Fprintf(w, "Frames analysed: %d\n", len(r.Study.Frames))

	res := r.Result
	if res == nil {
		if r.Error != "" {
			fmt.Fprintf(w, "Analysis failed: %s\n", r.Error)
		}
		return nil
	}

	fmt.Fprintf(w, "Region of interest: %s in %dx%d frames (%d pixels", res.Region, res.Width, res.Height, res.MaskArea)
	if res.RegionClipped {
		fmt.Fprint(w, ", clipped at frame edge")
	}
	fmt.Fprintln(w, ")")

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "FRAME\tSIGNAL\tGRADIENT\t")
	fmt.Fprintln(tw, "-----\t------\t--------\t")
	for d, s := range res.Curve {
		mark := ""
		switch {
		case res.Arrival.Detected() && d == res.Arrival.TimeFrame:
			mark = "arrival"
		case res.Peak.TimeFrame >= 0 && d == res.Peak.TimeFrame:
			mark = "peak"
		}
		g := 0.0
		if d < len(res.Arrival.Gradients) {
			g = res.Arrival.Gradients[d]
		}
		fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%s\n", d, s, g, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Error != "" {
		fmt.Fprintf(w, "Analysis failed: %s\n", r.Error)
		return nil
	}

	fmt.Fprintf(w, "Contrast arrival at frame %d, intensity: %g\n", res.Arrival.TimeFrame, res.Arrival.Intensity)
	fmt.Fprintf(w, "Peak contrast at frame %d, intensity: %g\n", res.Peak.TimeFrame, res.Peak.Intensity)
	fmt.Fprintf(w, "Temporal gradient during contrast uptake: %g\n", res.TemporalGradient)
	fmt.Fprintf(w, "Baseline (%d frames): mean %.3f, std %.3f\n", res.Baseline.Frames, res.Baseline.Mean, res.Baseline.StdDev)
	if res.Baseline.Mean != 0 {
		fmt.Fprintf(w, "Relative enhancement: %.1f%%\n", res.RelativeEnhancement*100)
	}
	if res.ArrivalAfterPeak {
		fmt.Fprintln(w, "WARNING: arrival detected after peak; temporal gradient is not meaningful")
	}
	return nil
}
