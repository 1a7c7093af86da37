package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contrastcurve/internal/models"
	"contrastcurve/pkg/frame"
)

// writeFile writes content into dir/name and returns the path
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// TestDecodePGM verifies header parsing, comments and row-major layout
func TestDecodePGM(t *testing.T) {
	src := "P2\n# created by scanner\n3 2\n255\n0 10 20\n30 40 255 # last row\n"
	f, err := DecodePGM(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Failed to decode PGM: %v", err)
	}

	if f.Width() != 3 || f.Height() != 2 {
		t.Fatalf("Expected 3x2 frame, got %dx%d", f.Width(), f.Height())
	}

	v, _ := f.At(2, 1)
	if v != 255 {
		t.Errorf("Expected 255 at (2,1), got %f", v)
	}
	v, _ = f.At(1, 0)
	if v != 10 {
		t.Errorf("Expected 10 at (1,0), got %f", v)
	}
}

// TestDecodePGMErrors verifies rejection of malformed input
func TestDecodePGMErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"binary magic", "P5\n1 1\n255\n0\n", ErrUnsupportedFormat},
		{"16-bit max", "P2\n1 1\n65535\n0\n", ErrUnsupportedFormat},
		{"truncated header", "P2\n1\n", ErrUnsupportedFormat},
		{"too few pixels", "P2\n2 2\n255\n1 2 3\n", ErrPixelCount},
		{"too many pixels", "P2\n1 1\n255\n1 2\n", ErrPixelCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePGM(strings.NewReader(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := DecodePGM(strings.NewReader("P2\n1 1\n255\nx\n")); err == nil {
		t.Error("Expected error for non-numeric pixel, got nil")
	}
}

// TestEncodePGMRoundTrip writes a frame and reads it back
func TestEncodePGMRoundTrip(t *testing.T) {
	f, err := frame.FromData(2, 2, []float64{0, 12, 300, -5})
	if err != nil {
		t.Fatalf("Failed to create frame: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodePGM(&buf, f); err != nil {
		t.Fatalf("Failed to encode PGM: %v", err)
	}

	back, err := DecodePGM(&buf)
	if err != nil {
		t.Fatalf("Failed to decode encoded PGM: %v", err)
	}
	want := []float64{0, 12, 255, 0}
	for i, v := range back.Data() {
		if v != want[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], v)
		}
	}
}

// TestLoadImagePNG verifies gray conversion of PNG frames
func TestLoadImagePNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x*10 + y)})
		}
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	file.Close()

	f, err := LoadFrame(path)
	if err != nil {
		t.Fatalf("Failed to load PNG: %v", err)
	}
	if f.Width() != 4 || f.Height() != 3 {
		t.Fatalf("Expected 4x3, got %dx%d", f.Width(), f.Height())
	}
	v, _ := f.At(3, 2)
	if v != 32 {
		t.Errorf("Expected 32 at (3,2), got %f", v)
	}
}

// TestLoadFrameUnsupported verifies extension dispatch
func TestLoadFrameUnsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "frame.bmp", "BM")
	if _, err := LoadFrame(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestResolveFramesOrdersNumerically verifies directory expansion
func TestResolveFramesOrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []int{10, 2, 1} {
		writeFile(t, dir, fmt.Sprintf("frame_%d.pgm", n), "P2\n1 1\n255\n0\n")
	}
	writeFile(t, dir, "agent.txt", "Gd\n0.1\n")

	files, err := ResolveFrames([]string{dir})
	if err != nil {
		t.Fatalf("Failed to resolve frames: %v", err)
	}

	want := []string{"frame_1.pgm", "frame_2.pgm", "frame_10.pgm"}
	if len(files) != len(want) {
		t.Fatalf("Expected %d files, got %d: %v", len(want), len(files), files)
	}
	for i, w := range want {
		if filepath.Base(files[i]) != w {
			t.Errorf("Position %d: expected %s, got %s", i, w, filepath.Base(files[i]))
		}
	}

	if _, err := ResolveFrames([]string{t.TempDir()}); err == nil {
		t.Error("Expected error for directory without frames, got nil")
	}
}

// TestExtractNumber verifies numeric ordering keys
func TestExtractNumber(t *testing.T) {
	tests := map[string]int{
		"frame_001.pgm":   1,
		"t12.png":         12,
		"/data/img42.jpg": 42,
		"baseline.pgm":    0,
	}
	for name, want := range tests {
		if got := extractNumber(name); got != want {
			t.Errorf("extractNumber(%q): expected %d, got %d", name, want, got)
		}
	}
}

// TestLoadSequence verifies decoding order and the progress callback
func TestLoadSequence(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pgm", "P2\n2 1\n255\n1 2\n")
	b := writeFile(t, dir, "b.pgm", "P2\n2 1\n255\n3 4\n")

	var seen []models.FrameSource
	seq, sources, err := LoadSequence([]string{a, b}, func(src models.FrameSource) {
		seen = append(seen, src)
	})
	if err != nil {
		t.Fatalf("Failed to load sequence: %v", err)
	}
	if seq.Len() != 2 || len(sources) != 2 || len(seen) != 2 {
		t.Fatalf("Expected 2 frames, got seq=%d sources=%d callbacks=%d", seq.Len(), len(sources), len(seen))
	}
	if sources[1].Filename != b || sources[1].Index != 1 || sources[1].Width != 2 {
		t.Errorf("Unexpected source record %+v", sources[1])
	}
	v, _ := seq[1].At(0, 0)
	if v != 3 {
		t.Errorf("Expected 3 in second frame, got %f", v)
	}

	if _, _, err := LoadSequence(nil, nil); !errors.Is(err, frame.ErrEmptySequence) {
		t.Errorf("Expected ErrEmptySequence, got %v", err)
	}
}

// TestLoadSequenceContextError verifies a bad file fails the whole load
func TestLoadSequenceContextError(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pgm", "P2\n2 1\n255\n1 2\n")
	bad := writeFile(t, dir, "b.pgm", "P5\n2 1\n255\n")

	seq, _, err := LoadSequenceContext(context.Background(), []string{a, bad, a}, 2, nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if seq != nil {
		t.Errorf("Expected nil sequence on error, got %d frames", seq.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := LoadSequenceContext(ctx, []string{a}, 1, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestDecodeContrastAgent verifies the two-line metadata format
func TestDecodeContrastAgent(t *testing.T) {
	agent, err := DecodeContrastAgent(strings.NewReader("Gadobutrol\n0.1\n"))
	if err != nil {
		t.Fatalf("Failed to decode agent: %v", err)
	}
	if agent.Name != "Gadobutrol" || agent.Dose != 0.1 {
		t.Errorf("Unexpected agent %+v", agent)
	}

	// blank lines before the dose are allowed
	agent, err = DecodeContrastAgent(strings.NewReader("Gadovist\n\n  \n0.1\n"))
	if err != nil {
		t.Fatalf("Failed to decode agent with blank lines: %v", err)
	}
	if agent.Name != "Gadovist" || agent.Dose != 0.1 {
		t.Errorf("Unexpected agent %+v", agent)
	}

	tests := []struct {
		name string
		src  string
	}{
		{"empty file", ""},
		{"blank name", "\n0.1\n"},
		{"missing dose", "Gadobutrol\n"},
		{"only blank lines after name", "Gadobutrol\n\n\n"},
		{"zero dose", "Gadobutrol\n0\n"},
		{"negative dose", "Gadobutrol\n-0.2\n"},
		{"text dose", "Gadobutrol\nlots\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeContrastAgent(strings.NewReader(tt.src)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

// TestLoadContrastAgentMissingFile verifies open errors are reported
func TestLoadContrastAgentMissingFile(t *testing.T) {
	if _, err := LoadContrastAgent(filepath.Join(t.TempDir(), "none.txt")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}
