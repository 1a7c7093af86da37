package loader

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"contrastcurve/internal/models"
	"contrastcurve/pkg/frame"
)

// SupportedExtensions lists the frame file extensions LoadFrame understands.
var SupportedExtensions = []string{".pgm", ".png", ".jpg", ".jpeg"}

// IsFrameFile reports whether name has a supported frame extension.
func IsFrameFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadImage decodes a PNG or JPEG file into a frame of 8-bit gray levels,
// the same 0..255 scale as PGM input.
func LoadImage(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrUnsupportedFormat)
	}
	return FromImage(img)
}

// FromImage converts any image to a frame of 8-bit gray levels.
func FromImage(img image.Image) (*frame.Frame, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	data := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			data[y*width+x] = float64(g.Y)
		}
	}
	return frame.FromData(width, height, data)
}

// LoadFrame picks a decoder from the file extension.
func LoadFrame(path string) (*frame.Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pgm":
		return LoadPGM(path)
	case ".png", ".jpg", ".jpeg":
		return LoadImage(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// ResolveFrames expands the given paths into an ordered list of frame files.
//
// A directory contributes every supported file it contains, sorted by the
// number embedded in the file name so that frame_2 precedes frame_10.
// Plain files are kept in the order given.
func ResolveFrames(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read directory %s: %w", p, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && IsFrameFile(e.Name()) {
				names = append(names, e.Name())
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no frame images found in %s", p)
		}
		sort.SliceStable(names, func(i, j int) bool {
			ni, nj := extractNumber(names[i]), extractNumber(names[j])
			if ni != nj {
				return ni < nj
			}
			return names[i] < names[j]
		})
		for _, n := range names {
			files = append(files, filepath.Join(p, n))
		}
	}
	return files, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// LoadSequence decodes every file using one goroutine per CPU.
// See LoadSequenceContext.
func LoadSequence(files []string, onLoad func(models.FrameSource)) (frame.Sequence, []models.FrameSource, error) {
	return LoadSequenceContext(context.Background(), files, runtime.NumCPU(), onLoad)
}

// LoadSequenceContext decodes files concurrently with at most workers
// goroutines. The returned sequence keeps the order of files. onLoad, if not
// nil, is called once per decoded frame, never concurrently, in completion
// order; it is meant for progress reporting. The first decode error cancels
// the remaining work.
func LoadSequenceContext(ctx context.Context, files []string, workers int, onLoad func(models.FrameSource)) (frame.Sequence, []models.FrameSource, error) {
	if len(files) == 0 {
		return nil, nil, frame.ErrEmptySequence
	}
	if workers < 1 {
		workers = 1
	}

	seq := make(frame.Sequence, len(files))
	sources := make([]models.FrameSource, len(files))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := LoadFrame(path)
			if err != nil {
				return fmt.Errorf("failed to load frame %d: %w", i, err)
			}
			src := models.FrameSource{
				Index:    i,
				Filename: path,
				Width:    f.Width(),
				Height:   f.Height(),
			}
			seq[i] = f
			sources[i] = src
			if onLoad != nil {
				mu.Lock()
				onLoad(src)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return seq, sources, nil
}
