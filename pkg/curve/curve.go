// Package curve analyses a signal-intensity time course: it locates the
// peak contrast frame, detects contrast arrival from the forward-difference
// gradient, and computes the temporal gradient between the two.
//
// Every function either returns a complete result or one of the Err*
// values below (possibly wrapped); nothing here logs or retries.
package curve

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DefaultArrivalThreshold is the gradient, in intensity units per frame,
// that the signal must strictly exceed for contrast arrival to be detected.
const DefaultArrivalThreshold = 10.0

var (
	// ErrEmptyInput is returned when the curve has no frames.
	ErrEmptyInput = errors.New("signal curve is empty")

	// ErrNoPeakFound is returned when no value of the curve is above zero.
	ErrNoPeakFound = errors.New("no positive peak in signal curve")

	// ErrNoArrivalDetected is returned when no gradient exceeds the
	// arrival threshold.
	ErrNoArrivalDetected = errors.New("no contrast arrival detected")

	// ErrDegenerateInterval is returned when peak and arrival fall on the
	// same time frame.
	ErrDegenerateInterval = errors.New("peak and arrival are the same time frame")
)

// PeakPoint is the time frame and intensity of maximum signal.
type PeakPoint struct {
	TimeFrame int     `json:"timeFrame"`
	Intensity float64 `json:"intensity"`
}

// ArrivalPoint is the first time frame at which the signal rises faster than
// the arrival threshold, together with the full gradient curve.
type ArrivalPoint struct {
	// TimeFrame is the arrival frame, or -1 when no arrival was detected
	TimeFrame int `json:"timeFrame"`

	// Intensity is the signal value at TimeFrame (not the gradient)
	Intensity float64 `json:"intensity"`

	// Gradients holds curve[d+1]-curve[d] for every frame but the last,
	// followed by 0 for the last frame
	Gradients []float64 `json:"gradients"`
}

// Detected reports whether an arrival frame was found.
func (a ArrivalPoint) Detected() bool { return a.TimeFrame >= 0 }

// FindPeak returns the earliest frame holding the maximum value of curve.
// The maximum must be strictly positive; a curve whose values are all
// zero or negative yields ErrNoPeakFound rather than frame 0.
func FindPeak(curve []float64) (PeakPoint, error) {
	if len(curve) == 0 {
		return PeakPoint{TimeFrame: -1}, ErrEmptyInput
	}

	// MaxIdx keeps the first index on ties and skips NaN values
	idx := floats.MaxIdx(curve)
	if !(curve[idx] > 0) {
		return PeakPoint{TimeFrame: -1}, ErrNoPeakFound
	}
	return PeakPoint{TimeFrame: idx, Intensity: curve[idx]}, nil
}

// Gradients returns the forward difference of curve with a trailing 0, so
// the result has the same length as curve.
func Gradients(curve []float64) []float64 {
	n := len(curve)
	if n == 0 {
		return []float64{}
	}
	g := make([]float64, n)
	floats.SubTo(g[:n-1], curve[1:], curve[:n-1])
	return g
}

// FindArrival detects contrast arrival using DefaultArrivalThreshold.
func FindArrival(curve []float64) (ArrivalPoint, error) {
	return FindArrivalWithThreshold(curve, DefaultArrivalThreshold)
}

// FindArrivalWithThreshold returns the first frame d whose gradient
// curve[d+1]-curve[d] is strictly greater than threshold.
//
// The gradient curve is filled in on every return except ErrEmptyInput,
// including ErrNoArrivalDetected, so callers can still display it.
func FindArrivalWithThreshold(curve []float64, threshold float64) (ArrivalPoint, error) {
	if len(curve) == 0 {
		return ArrivalPoint{TimeFrame: -1}, ErrEmptyInput
	}

	arrival := ArrivalPoint{
		TimeFrame: -1,
		Gradients: Gradients(curve),
	}
	for d, g := range arrival.Gradients {
		if g > threshold {
			arrival.TimeFrame = d
			arrival.Intensity = curve[d]
			return arrival, nil
		}
	}
	return arrival, fmt.Errorf("threshold %g: %w", threshold, ErrNoArrivalDetected)
}

// TemporalGradient returns the mean rate of signal change between arrival
// and peak, (peakIntensity-arrivalIntensity)/(peakFrame-arrivalFrame).
//
// The sign is not adjusted: an arrival detected after the peak gives a
// result whose sign follows the algebra.
func TemporalGradient(peakIntensity, arrivalIntensity float64, peakFrame, arrivalFrame int) (float64, error) {
	if peakFrame == arrivalFrame {
		return 0, fmt.Errorf("frame %d: %w", peakFrame, ErrDegenerateInterval)
	}
	return (peakIntensity - arrivalIntensity) / float64(peakFrame-arrivalFrame), nil
}

// TemporalGradientBetween is TemporalGradient applied to detected points.
func TemporalGradientBetween(peak PeakPoint, arrival ArrivalPoint) (float64, error) {
	return TemporalGradient(peak.Intensity, arrival.Intensity, peak.TimeFrame, arrival.TimeFrame)
}
