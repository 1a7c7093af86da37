package frame

import "fmt"

// Sequence is an ordered time series of frames. Index d is time frame d,
// in acquisition order.
type Sequence []*Frame

// Len returns the number of time frames.
func (s Sequence) Len() int { return len(s) }

// Dimensions returns the width and height shared by every frame.
//
// Returns:
//   - ErrEmptySequence when the sequence has no frames
//   - ErrDimensionMismatch naming the first frame whose size differs from frame 0
func (s Sequence) Dimensions() (width, height int, err error) {
	if len(s) == 0 {
		return 0, 0, ErrEmptySequence
	}
	first := s[0]
	for i, f := range s[1:] {
		if !f.SameSize(first) {
			return 0, 0, fmt.Errorf("frame %d is %dx%d, frame 0 is %dx%d: %w",
				i+1, f.Width(), f.Height(), first.Width(), first.Height(), ErrDimensionMismatch)
		}
	}
	return first.Width(), first.Height(), nil
}

// Validate checks that the sequence is non-empty and uniformly sized.
func (s Sequence) Validate() error {
	_, _, err := s.Dimensions()
	return err
}

// Clone deep-copies every frame of the sequence.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	for i, f := range s {
		out[i] = f.Clone()
	}
	return out
}

// Equal reports whether both sequences hold equal frames in the same order.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
