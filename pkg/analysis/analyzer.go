// Package analysis runs the contrast-curve pipeline over a loaded study:
// region masking, per-frame averaging, peak and arrival detection and the
// temporal gradient between them.
package analysis

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"contrastcurve/pkg/curve"
	"contrastcurve/pkg/frame"
	"contrastcurve/pkg/mask"
	"contrastcurve/pkg/signal"
)

// Params holds the analysis configuration injected by the caller.
type Params struct {
	// Region is the region of interest whose mean signal is tracked.
	// There is no default; the caller decides.
	Region mask.RegionSpec

	// ArrivalThreshold is the gradient that marks contrast arrival.
	// Zero selects curve.DefaultArrivalThreshold.
	ArrivalThreshold float64

	// NumWorkers is the number of goroutines used to average frames.
	// Values below 2 average sequentially.
	NumWorkers int
}

// Baseline summarises the signal from the first frame up to and including
// the arrival frame, before the contrast bolus rises.
type Baseline struct {
	Frames int     `json:"frames"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// Result holds everything the pipeline produced.
type Result struct {
	// Width and Height are the frame dimensions shared by the study
	Width  int `json:"width"`
	Height int `json:"height"`

	// Region is the requested region and RegionClipped tells whether it
	// extended past the frame edges
	Region        mask.RegionSpec `json:"region"`
	RegionClipped bool            `json:"regionClipped"`

	// MaskArea is the number of pixels inside the clipped region
	MaskArea int `json:"maskArea"`

	// Curve is the mean signal per time frame
	Curve signal.Curve `json:"curve"`

	// Peak and Arrival are the detected points; Arrival.Gradients is the
	// full forward-difference curve
	Peak    curve.PeakPoint    `json:"peak"`
	Arrival curve.ArrivalPoint `json:"arrival"`

	// TemporalGradient is the mean signal rise per frame from arrival to peak
	TemporalGradient float64 `json:"temporalGradient"`

	// ArrivalAfterPeak is set when arrival was detected later than the
	// peak, which makes TemporalGradient physically meaningless
	ArrivalAfterPeak bool `json:"arrivalAfterPeak"`

	// Baseline describes the pre-arrival signal
	Baseline Baseline `json:"baseline"`

	// RelativeEnhancement is (peak - baseline mean) / baseline mean, zero
	// when the baseline mean is zero
	RelativeEnhancement float64 `json:"relativeEnhancement"`
}

// Analyzer runs the pipeline. It holds no state between runs except the
// outputs of the last Process call, kept for the getters.
type Analyzer struct {
	params Params
	log    zerolog.Logger

	mask   *frame.Frame
	masked frame.Sequence
}

// NewAnalyzer creates an analyzer that reports progress to log.
// Pass zerolog.Nop() to silence it.
func NewAnalyzer(params Params, log zerolog.Logger) *Analyzer {
	if params.ArrivalThreshold == 0 {
		params.ArrivalThreshold = curve.DefaultArrivalThreshold
	}
	return &Analyzer{
		params: params,
		log:    log.With().Str("component", "analysis").Logger(),
	}
}

// Params returns the effective parameters.
func (a *Analyzer) Params() Params { return a.params }

// Process runs the complete pipeline over seq.
//
// When peak or arrival detection fails the returned Result is still
// non-nil and carries the signal curve and gradient curve, so they can be
// displayed; the error names the failure (see the curve package errors).
// Validation and masking failures return a nil Result.
func (a *Analyzer) Process(seq frame.Sequence) (*Result, error) {
	// Step 1: the study must be non-empty and uniformly sized
	width, height, err := seq.Dimensions()
	if err != nil {
		if errors.Is(err, frame.ErrEmptySequence) {
			return nil, fmt.Errorf("invalid study: %w", curve.ErrEmptyInput)
		}
		return nil, fmt.Errorf("invalid study: %w", err)
	}
	a.log.Debug().Int("frames", seq.Len()).Int("width", width).Int("height", height).Msg("study validated")

	res := &Result{
		Width:         width,
		Height:        height,
		Region:        a.params.Region,
		RegionClipped: a.params.Region.Clipped(width, height),
	}

	// Step 2: build the region mask and apply it to every frame
	m, err := mask.Build(width, height, a.params.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to build mask: %w", err)
	}
	res.MaskArea = mask.Area(m)
	if res.RegionClipped {
		a.log.Warn().Stringer("region", a.params.Region).Int("area", res.MaskArea).
			Msg("region extends past frame edges and was clipped")
	}

	masked, err := mask.Apply(seq, m)
	if err != nil {
		return nil, fmt.Errorf("failed to apply mask: %w", err)
	}
	a.mask = m
	a.masked = masked
	a.log.Debug().Stringer("region", a.params.Region).Int("area", res.MaskArea).Msg("mask applied")

	// Step 3: reduce each masked frame to its mean
	res.Curve = signal.AverageParallel(masked, a.params.NumWorkers)
	a.log.Debug().Floats64("curve", res.Curve).Msg("signal curve computed")

	// Step 4: detect peak and arrival
	arrival, arrivalErr := curve.FindArrivalWithThreshold(res.Curve, a.params.ArrivalThreshold)
	res.Arrival = arrival

	peak, err := curve.FindPeak(res.Curve)
	res.Peak = peak
	if err != nil {
		return res, fmt.Errorf("peak detection failed: %w", err)
	}
	a.log.Info().Int("time_frame", peak.TimeFrame).Float64("intensity", peak.Intensity).Msg("peak contrast")

	if arrivalErr != nil {
		return res, fmt.Errorf("arrival detection failed: %w", arrivalErr)
	}
	a.log.Info().Int("time_frame", arrival.TimeFrame).Float64("intensity", arrival.Intensity).Msg("contrast arrival")

	// Step 5: temporal gradient between arrival and peak
	gradient, err := curve.TemporalGradientBetween(peak, arrival)
	if err != nil {
		return res, fmt.Errorf("temporal gradient failed: %w", err)
	}
	res.TemporalGradient = gradient

	if arrival.TimeFrame > peak.TimeFrame {
		res.ArrivalAfterPeak = true
		a.log.Warn().Int("arrival", arrival.TimeFrame).Int("peak", peak.TimeFrame).
			Msg("arrival detected after peak; temporal gradient is not meaningful")
	}

	res.Baseline, res.RelativeEnhancement = baselineStats(res.Curve, arrival.TimeFrame, peak.Intensity)
	a.log.Info().Float64("temporal_gradient", gradient).Msg("analysis complete")

	return res, nil
}

// baselineStats summarises curve[0..arrival] and the peak enhancement over it.
func baselineStats(c signal.Curve, arrival int, peak float64) (Baseline, float64) {
	pre := c[:arrival+1]
	mean, std := stat.MeanStdDev(pre, nil)
	if len(pre) < 2 {
		std = 0
	}
	b := Baseline{Frames: len(pre), Mean: mean, StdDev: std}

	if mean == 0 {
		return b, 0
	}
	return b, (peak - mean) / mean
}

// Mask returns the region mask built by the last Process call.
func (a *Analyzer) Mask() *frame.Frame { return a.mask }

// MaskedFrames returns the masked study from the last Process call.
func (a *Analyzer) MaskedFrames() frame.Sequence { return a.masked }
