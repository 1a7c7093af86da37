// Package visualization renders study frames and signal curves as images.
package visualization

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"
)

// Chart dimensions in pixels.
const (
	ChartWidth  = 900
	ChartHeight = 500
)

// Marker labels a single point on a curve chart.
type Marker struct {
	TimeFrame int
	Value     float64
	Label     string
}

// CurveChart describes one time-course plot.
type CurveChart struct {
	Title   string
	YLabel  string
	Values  []float64
	Markers []Marker
}

// Render writes the chart as PNG.
func (c CurveChart) Render(w io.Writer) error {
	if len(c.Values) == 0 {
		return errors.New("cannot chart an empty curve")
	}

	xs := make([]float64, len(c.Values))
	for i := range xs {
		xs[i] = float64(i)
	}

	// go-chart rejects zero-width ranges, so a single frame or a flat
	// curve gets explicit padding
	xMax := float64(len(c.Values) - 1)
	if xMax == 0 {
		xMax = 1
	}
	yMin, yMax := floats.Min(c.Values), floats.Max(c.Values)
	if yMin == yMax {
		yMin, yMax = yMin-1, yMax+1
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    c.YLabel,
			XValues: xs,
			YValues: c.Values,
		},
	}
	if len(c.Markers) > 0 {
		annotations := make([]chart.Value2, len(c.Markers))
		for i, m := range c.Markers {
			annotations[i] = chart.Value2{
				XValue: float64(m.TimeFrame),
				YValue: m.Value,
				Label:  m.Label,
			}
		}
		series = append(series, chart.AnnotationSeries{Annotations: annotations})
	}

	graph := chart.Chart{
		Title:  c.Title,
		Width:  ChartWidth,
		Height: ChartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  "Time frame",
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  c.YLabel,
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: series,
	}

	return graph.Render(chart.PNG, w)
}

// Save renders the chart into filename.
func (c CurveChart) Save(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := c.Render(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to render %s: %w", filename, err)
	}
	return file.Close()
}
