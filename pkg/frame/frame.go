// Package frame provides the 2D sample grid used for every image of a
// perfusion study, and the time-ordered Sequence of such grids.
package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when a coordinate falls outside the frame.
	ErrOutOfBounds = errors.New("coordinate out of frame bounds")

	// ErrDimensionMismatch is returned when two grids that must share a
	// width and height do not, or when a buffer does not fit the grid.
	ErrDimensionMismatch = errors.New("frame dimensions do not match")

	// ErrEmptySequence is returned when an operation needs at least one frame.
	ErrEmptySequence = errors.New("sequence contains no frames")
)

// Frame is a dense grid of intensity samples stored in row-major order.
//
// A Frame is built once and afterwards treated as read-only by the analysis
// stages; each stage that transforms frames allocates new ones.
type Frame struct {
	// width is the number of columns (x axis)
	width int

	// height is the number of rows (y axis)
	height int

	// data holds width*height samples, index y*width + x
	data []float64
}

// New creates a zero-filled frame of the given dimensions.
// Zero-sized frames are allowed; negative dimensions are not.
func New(width, height int) (*Frame, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d: %w", width, height, ErrDimensionMismatch)
	}
	return &Frame{
		width:  width,
		height: height,
		data:   make([]float64, width*height),
	}, nil
}

// FromData creates a frame pre-filled from a flat row-major buffer.
// The buffer is copied, so the caller may reuse it.
func FromData(width, height int, data []float64) (*Frame, error) {
	f, err := New(width, height)
	if err != nil {
		return nil, err
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("buffer holds %d samples, %dx%d frame needs %d: %w",
			len(data), width, height, width*height, ErrDimensionMismatch)
	}
	copy(f.data, data)
	return f, nil
}

// Width returns the number of columns.
func (f *Frame) Width() int { return f.width }

// Height returns the number of rows.
func (f *Frame) Height() int { return f.height }

// Len returns the number of samples, width*height.
func (f *Frame) Len() int { return len(f.data) }

// In reports whether (x, y) addresses a cell of the frame.
func (f *Frame) In(x, y int) bool {
	return x >= 0 && x < f.width && y >= 0 && y < f.height
}

// At returns the sample at column x, row y.
func (f *Frame) At(x, y int) (float64, error) {
	if !f.In(x, y) {
		return 0, fmt.Errorf("at (%d,%d) in %dx%d frame: %w", x, y, f.width, f.height, ErrOutOfBounds)
	}
	return f.data[y*f.width+x], nil
}

// Set stores v at column x, row y.
func (f *Frame) Set(x, y int, v float64) error {
	if !f.In(x, y) {
		return fmt.Errorf("set (%d,%d) in %dx%d frame: %w", x, y, f.width, f.height, ErrOutOfBounds)
	}
	f.data[y*f.width+x] = v
	return nil
}

// Data returns the underlying row-major samples. The slice is shared with
// the frame; callers that need to modify it should use Clone first.
func (f *Frame) Data() []float64 { return f.data }

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	data := make([]float64, len(f.data))
	copy(data, f.data)
	return &Frame{width: f.width, height: f.height, data: data}
}

// SameSize reports whether f and other share width and height.
func (f *Frame) SameSize(other *Frame) bool {
	return f.width == other.width && f.height == other.height
}

// Equal reports whether both frames have the same size and samples.
func (f *Frame) Equal(other *Frame) bool {
	if !f.SameSize(other) {
		return false
	}
	for i, v := range f.data {
		if other.data[i] != v {
			return false
		}
	}
	return true
}
