// Package loader decodes study inputs from disk: grayscale frames (ASCII PGM,
// PNG, JPEG) and the contrast agent metadata file.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"contrastcurve/pkg/frame"
)

// PGMMaxValue is the only maximum gray value accepted in PGM headers.
const PGMMaxValue = 255

var (
	// ErrUnsupportedFormat is returned for unknown file types, non-P2 PGM
	// files and PGM files whose maximum value is not 255.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrPixelCount is returned when a PGM body does not hold width*height samples.
	ErrPixelCount = errors.New("pixel count does not match image size")
)

// LoadPGM reads an ASCII (P2) PGM file.
func LoadPGM(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer file.Close()

	f, err := DecodePGM(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// DecodePGM parses an ASCII (P2) PGM stream. Comments starting with '#'
// run to the end of the line and may appear anywhere.
func DecodePGM(r io.Reader) (*frame.Frame, error) {
	tokens, err := pgmTokens(r)
	if err != nil {
		return nil, err
	}
	if len(tokens) < 4 {
		return nil, fmt.Errorf("truncated PGM header: %w", ErrUnsupportedFormat)
	}
	if tokens[0] != "P2" {
		return nil, fmt.Errorf("magic %q, want P2: %w", tokens[0], ErrUnsupportedFormat)
	}

	header := make([]int, 3)
	for i, tok := range tokens[1:4] {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid PGM header value %q: %w", tok, err)
		}
		header[i] = v
	}
	width, height, maxValue := header[0], header[1], header[2]
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid PGM size %dx%d: %w", width, height, ErrUnsupportedFormat)
	}
	if maxValue != PGMMaxValue {
		return nil, fmt.Errorf("max value %d, want %d: %w", maxValue, PGMMaxValue, ErrUnsupportedFormat)
	}

	body := tokens[4:]
	if len(body) != width*height {
		return nil, fmt.Errorf("expected %d pixels, got %d: %w", width*height, len(body), ErrPixelCount)
	}

	data := make([]float64, len(body))
	for i, tok := range body {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid pixel %d %q: %w", i, tok, err)
		}
		data[i] = float64(v)
	}
	return frame.FromData(width, height, data)
}

func pgmTokens(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// EncodePGM writes f as an ASCII (P2) PGM stream, clamping samples to 0..255.
func EncodePGM(w io.Writer, f *frame.Frame) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P2\n%d %d\n%d\n", f.Width(), f.Height(), PGMMaxValue)
	data := f.Data()
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			if x > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(clampGray(data[y*f.Width()+x])))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func clampGray(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > PGMMaxValue:
		return PGMMaxValue
	default:
		return int(v + 0.5)
	}
}
