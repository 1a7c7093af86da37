package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	curveSheet   = "Curve"
	summarySheet = "Summary"
)

// SaveXLSX writes the per-frame signal and gradient plus the detected points
// to an Excel workbook, for spreadsheet users. It needs a result.
func (r *Report) SaveXLSX(filename string) error {
	if r.Result == nil {
		return fmt.Errorf("no result to export")
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty Sheet1 behind
	if err := f.SetSheetName("Sheet1", curveSheet); err != nil {
		return err
	}
	if err := r.writeCurveSheet(f); err != nil {
		return fmt.Errorf("error writing curve sheet: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := r.writeSummarySheet(f); err != nil {
		return fmt.Errorf("error writing summary sheet: %w", err)
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func (r *Report) writeCurveSheet(f *excelize.File) error {
	res := r.Result
	if err := f.SetSheetRow(curveSheet, "A1", &[]any{"Frame", "File", "Signal", "Gradient"}); err != nil {
		return err
	}
	for d, s := range res.Curve {
		name := ""
		if d < len(r.Study.Frames) {
			name = filepath.Base(r.Study.Frames[d].Filename)
		}
		g := 0.0
		if d < len(res.Arrival.Gradients) {
			g = res.Arrival.Gradients[d]
		}
		cell, err := excelize.CoordinatesToCellName(1, d+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(curveSheet, cell, &[]any{d, name, s, g}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) writeSummarySheet(f *excelize.File) error {
	res := r.Result
	rows := [][]any{
		{"Run ID", r.RunID},
		{"Created", r.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Region", res.Region.String()},
		{"Mask area", res.MaskArea},
		{"Arrival frame", res.Arrival.TimeFrame},
		{"Arrival intensity", res.Arrival.Intensity},
		{"Peak frame", res.Peak.TimeFrame},
		{"Peak intensity", res.Peak.Intensity},
		{"Temporal gradient", res.TemporalGradient},
		{"Baseline mean", res.Baseline.Mean},
		{"Baseline std", res.Baseline.StdDev},
		{"Relative enhancement", res.RelativeEnhancement},
	}
	if a := r.Study.Agent; a != nil {
		rows = append(rows, []any{"Contrast agent", a.Name}, []any{"Dose (mmol/kg)", a.Dose})
	}
	if r.Error != "" {
		rows = append(rows, []any{"Error", r.Error})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
