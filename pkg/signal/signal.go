// Package signal reduces each masked frame of a study to a single scalar,
// producing the signal-intensity time course of the region of interest.
package signal

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"contrastcurve/pkg/frame"
)

// Curve is the signal time course: one value per time frame, in frame order.
type Curve []float64

// Len returns the number of time frames in the curve.
func (c Curve) Len() int { return len(c) }

// FrameMean returns the arithmetic mean over every cell of f, or 0 for a
// frame without cells.
//
// The divisor is the full pixel count of the frame, not the area of the
// region of interest. Masked-out cells are zero and still counted, so the
// resulting magnitude scales with region area / frame area. The arrival
// threshold is calibrated against this diluted value.
func FrameMean(f *frame.Frame) float64 {
	if f.Len() == 0 {
		return 0
	}
	return stat.Mean(f.Data(), nil)
}

// Average computes FrameMean for every frame of seq.
func Average(seq frame.Sequence) Curve {
	curve := make(Curve, len(seq))
	for d, f := range seq {
		curve[d] = FrameMean(f)
	}
	return curve
}

// AverageParallel computes the same curve as Average, splitting the frames
// into contiguous blocks handled by up to workers goroutines. Each goroutine
// writes only its own indices, so the output order matches seq.
func AverageParallel(seq frame.Sequence, workers int) Curve {
	n := len(seq)
	if workers <= 1 || n < 2 {
		return Average(seq)
	}
	if workers > n {
		workers = n
	}

	curve := make(Curve, n)
	perWorker := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * perWorker
		if start >= n {
			break
		}
		end := start + perWorker
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for d := start; d < end; d++ {
				curve[d] = FrameMean(seq[d])
			}
		}(start, end)
	}
	wg.Wait()

	return curve
}
