package report

import (
	"fmt"
	"io"
	"time"

	"turbocycle/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	pointsSheet  = "Points"
)

var pointHeader = []any{
	"Index", "X", "Y", "Fs (N·s/kg)", "SFC (kg/(N·h))", "Net thrust (N)",
	"Propulsive efficiency", "Tt3 (K)", "Limited", "Valid", "Reason",
}

// Workbook writes a sweep run as an XLSX file with Summary and Points sheets
func Workbook(w io.Writer, run *models.SweepRun, points []models.SweepPoint) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(pointsSheet); err != nil {
		return fmt.Errorf("failed to add points sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeSummary(f, run, points, bold); err != nil {
		return err
	}
	if err := writePoints(f, run, points, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, run *models.SweepRun, points []models.SweepPoint, bold int) error {
	valid := 0
	for _, p := range points {
		if p.Valid {
			valid++
		}
	}

	in := run.Inputs
	rows := [][]any{
		{"Run", run.ID},
		{"Kind", string(run.Kind)},
		{"Created", run.CreatedAt.UTC().Format(time.RFC3339)},
		{"Points", len(points)},
		{"Valid points", valid},
		{"Axis", run.Kind.AxisLabel()},
		{},
		{"Altitude (km)", in.AltitudeKm},
		{"Mach", in.Mach},
		{"Bypass ratio", in.BypassRatio},
		{"Fan pressure ratio", in.FanPressureRatio},
		{"HPC pressure ratio", in.HPCPressureRatio},
		{"Overall pressure ratio", in.OverallPressureRatio()},
		{"Tt4 (K)", in.Tt4},
		{"Afterburner", in.AfterburnerOn},
		{"TtAB (K)", in.TtAB},
	}
	if run.HasOptimum {
		rows = append(rows, []any{}, []any{"Optimum X", run.OptimumX})
		if run.Kind == models.SweepEnvelope {
			rows = append(rows, []any{"Optimum altitude (km)", run.OptimumY})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "B", 26)
}

func writePoints(f *excelize.File, run *models.SweepRun, points []models.SweepPoint, bold int) error {
	header := append([]any(nil), pointHeader...)
	header[1] = run.Kind.AxisLabel()
	if run.Kind == models.SweepEnvelope {
		header[2] = "Altitude (km)"
	}
	if err := f.SetSheetRow(pointsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(pointsSheet, "A1", "K1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, p := range points {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{p.Index, p.X, p.Y, p.Fs, p.SFC, p.NetThrust, p.EtaP, p.Tt3, p.Limited, p.Valid, p.Reason}
		if err := f.SetSheetRow(pointsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write point %d: %w", p.Index, err)
		}
	}

	if err := f.SetPanes(pointsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	return f.SetColWidth(pointsSheet, "A", "K", 16)
}
