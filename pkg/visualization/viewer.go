package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"contrastcurve/pkg/frame"
	"contrastcurve/pkg/loader"
	"contrastcurve/pkg/mask"
)

// MaxGray is the display white level; study samples are on a 0..255 scale.
const MaxGray = 255

// Viewer renders the frames of a study as images.
type Viewer struct {
	// frames holds the study in acquisition order
	frames frame.Sequence

	// magnify is the integer nearest-neighbour zoom applied on export
	magnify int

	// region, when set, is outlined on exported frames
	region *mask.RegionSpec
}

// NewViewer creates a viewer over frames. A magnify factor below 1 is treated as 1.
func NewViewer(frames frame.Sequence, magnify int) *Viewer {
	if magnify < 1 {
		magnify = 1
	}
	return &Viewer{
		frames:  frames,
		magnify: magnify,
	}
}

// WithRegion outlines region on every exported frame.
func (v *Viewer) WithRegion(region mask.RegionSpec) *Viewer {
	v.region = &region
	return v
}

// ExtractFrame converts time frame d to an 8-bit gray image, clamping
// samples to 0..MaxGray.
func (v *Viewer) ExtractFrame(d int) (*image.Gray, error) {
	if d < 0 || d >= len(v.frames) {
		return nil, fmt.Errorf("time frame %d out of range [0,%d)", d, len(v.frames))
	}
	return FrameToGray(v.frames[d]), nil
}

// FrameToGray converts f to an 8-bit gray image.
func FrameToGray(f *frame.Frame) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width(), f.Height()))
	data := f.Data()
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			s := data[y*f.Width()+x]
			switch {
			case s < 0:
				s = 0
			case s > MaxGray:
				s = MaxGray
			}
			img.SetGray(x, y, color.Gray{Y: uint8(s + 0.5)})
		}
	}
	return img
}

// Magnify scales img by an integer factor with nearest-neighbour sampling,
// so each sample becomes a factor x factor block.
func Magnify(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// RenderFrame returns time frame d magnified, with the region outlined in
// red when one is set.
func (v *Viewer) RenderFrame(d int) (image.Image, error) {
	gray, err := v.ExtractFrame(d)
	if err != nil {
		return nil, err
	}
	img := Magnify(gray, v.magnify)
	if v.region == nil {
		return img, nil
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)
	}
	b := v.region.Bounds(gray.Bounds().Dx(), gray.Bounds().Dy())
	if !b.Empty() {
		outline(rgba, image.Rectangle{Min: b.Min.Mul(v.magnify), Max: b.Max.Mul(v.magnify)}, color.RGBA{R: 255, A: 255})
	}
	return rgba, nil
}

// outline draws the one-pixel border of r.
func outline(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// SaveFrame saves img as PNG, or JPEG when filename ends in .jpg/.jpeg
func (v *Viewer) SaveFrame(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(file, img)
	}
}

// SaveFrameSequence renders and saves every time frame into outputDir
func (v *Viewer) SaveFrameSequence(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for d := range v.frames {
		img, err := v.RenderFrame(d)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("frame_%03d.png", d))
		if err := v.SaveFrame(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// SaveRawSequence writes every time frame into outputDir as an ASCII PGM
// holding the unscaled samples, so the files can be loaded again as a study.
func (v *Viewer) SaveRawSequence(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for d, f := range v.frames {
		filename := filepath.Join(outputDir, fmt.Sprintf("frame_%03d.pgm", d))
		file, err := os.Create(filename)
		if err != nil {
			return err
		}
		if err := loader.EncodePGM(file, f); err != nil {
			file.Close()
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		if err := file.Close(); err != nil {
			return err
		}
	}

	return nil
}
