// Package mask builds the binary region-of-interest grid and applies it to
// every frame of a study.
package mask

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"

	"contrastcurve/pkg/frame"
)

// RegionSpec describes a rectangular region of interest centred on
// (CenterX, CenterY). The region spans KernelWidth/2 cells on each side of
// the centre column and KernelHeight/2 cells on each side of the centre row,
// both ends inclusive, so odd kernel sizes yield exactly that many cells.
type RegionSpec struct {
	// KernelWidth is the region width in pixels
	KernelWidth int `yaml:"width" json:"width"`

	// KernelHeight is the region height in pixels
	KernelHeight int `yaml:"height" json:"height"`

	// CenterX is the column of the region centre
	CenterX int `yaml:"centerX" json:"centerX"`

	// CenterY is the row of the region centre
	CenterY int `yaml:"centerY" json:"centerY"`
}

// Rect returns the unclipped region as a half-open image.Rectangle.
func (r RegionSpec) Rect() image.Rectangle {
	halfW := r.KernelWidth / 2
	halfH := r.KernelHeight / 2
	return image.Rect(
		r.CenterX-halfW, r.CenterY-halfH,
		r.CenterX+halfW+1, r.CenterY+halfH+1,
	)
}

// Bounds returns the region clipped to a width x height frame.
// The result is empty when the region lies entirely outside the frame.
func (r RegionSpec) Bounds(width, height int) image.Rectangle {
	return r.Rect().Intersect(image.Rect(0, 0, width, height))
}

// Clipped reports whether part of the region falls outside a
// width x height frame.
func (r RegionSpec) Clipped(width, height int) bool {
	return r.Bounds(width, height) != r.Rect()
}

// Validate rejects negative kernel sizes.
func (r RegionSpec) Validate() error {
	if r.KernelWidth < 0 || r.KernelHeight < 0 {
		return fmt.Errorf("invalid region kernel %dx%d", r.KernelWidth, r.KernelHeight)
	}
	return nil
}

// String formats the region for log output.
func (r RegionSpec) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", r.KernelWidth, r.KernelHeight, r.CenterX, r.CenterY)
}

// Build returns a width x height mask with 1 inside the region and 0
// elsewhere. Region cells outside the frame are dropped, never written.
func Build(width, height int, region RegionSpec) (*frame.Frame, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	m, err := frame.New(width, height)
	if err != nil {
		return nil, err
	}

	b := region.Bounds(width, height)
	data := m.Data()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			data[y*width+x] = 1
		}
	}
	return m, nil
}

// Apply multiplies every frame of seq by m cell by cell and returns the
// masked frames as a new sequence. seq is left untouched.
//
// Every frame must have the mask's width and height; the first frame that
// does not yields frame.ErrDimensionMismatch.
func Apply(seq frame.Sequence, m *frame.Frame) (frame.Sequence, error) {
	out := make(frame.Sequence, len(seq))
	for d, f := range seq {
		if !f.SameSize(m) {
			return nil, fmt.Errorf("frame %d is %dx%d, mask is %dx%d: %w",
				d, f.Width(), f.Height(), m.Width(), m.Height(), frame.ErrDimensionMismatch)
		}
		masked, err := frame.New(f.Width(), f.Height())
		if err != nil {
			return nil, err
		}
		floats.MulTo(masked.Data(), f.Data(), m.Data())
		out[d] = masked
	}
	return out, nil
}

// Area returns the number of non-zero cells of the mask.
func Area(m *frame.Frame) int {
	n := 0
	for _, v := range m.Data() {
		if v != 0 {
			n++
		}
	}
	return n
}
