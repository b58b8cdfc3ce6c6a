package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"turbocycle/internal/cycle"

	"github.com/phpdave11/gofpdf"
)

var stationColumns = []struct {
	title string
	width float64
}{
	{"Station", 18}, {"Pt (kPa)", 20}, {"Tt (K)", 18}, {"P (kPa)", 20}, {"T (K)", 18},
	{"V (m/s)", 18}, {"f", 16}, {"m rel", 16}, {"cp", 18}, {"k", 14},
}

// StationSheetPDF writes an A4 sheet with the station table and the
// aggregate performance of one solve
func StationSheetPDF(w io.Writer, res cycle.EngineResult) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Turbofan cycle station sheet", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Turbofan cycle station sheet")
	pdf.Ln(10)

	in := res.Inputs
	ab := "off"
	if in.AfterburnerOn {
		ab = fmt.Sprintf("on, TtAB %.0f K", in.TtAB)
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Altitude %.2f km, Mach %.2f, B %.2f, fan PR %.3g, HPC PR %.4g, Tt4 %.0f K, afterburner %s",
		in.AltitudeKm, in.Mach, in.BypassRatio, in.FanPressureRatio, in.HPCPressureRatio, in.Tt4, ab))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", time.Now().UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(9)

	if res.Limited || res.Degraded != 0 {
		pdf.SetTextColor(180, 0, 0)
		pdf.SetFont("Helvetica", "B", 10)
		if res.Limited {
			pdf.MultiCell(0, 5, "PHYSICAL LIMIT: compressor exit temperature exceeds Tt4, no combustion. SFC and thrust are not valid.", "", "L", false)
		}
		if res.Degraded != 0 {
			pdf.MultiCell(0, 5, "Degraded: "+strings.Join(res.Degraded.Names(), ", "), "", "L", false)
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(3)
	}

	stationTable(pdf, res)
	pdf.Ln(6)
	performanceTable(pdf, res)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func stationTable(pdf *gofpdf.Fpdf, res cycle.EngineResult) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(225, 230, 240)
	for _, c := range stationColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, id := range cycle.Stations() {
		s := res.Station(id)
		cells := []string{
			id.String(),
			fmt.Sprintf("%.2f", s.Pt/1000),
			fmt.Sprintf("%.1f", s.Tt),
			optional(s, cycle.FieldP, s.P/1000, "%.2f"),
			optional(s, cycle.FieldT, s.T, "%.1f"),
			optional(s, cycle.FieldV, s.V, "%.1f"),
			optional(s, cycle.FieldFuelAir, s.FuelAir, "%.4f"),
			optional(s, cycle.FieldMassRel, s.MassRel, "%.3f"),
			optional(s, cycle.FieldCp, s.Cp, "%.0f"),
			optional(s, cycle.FieldK, s.K, "%.3f"),
		}
		for i, c := range stationColumns {
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func optional(s cycle.StationResult, f cycle.Field, v float64, format string) string {
	if !s.Has(f) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func performanceTable(pdf *gofpdf.Fpdf, res cycle.EngineResult) {
	dFs, dSFC := res.ReferenceDelta()
	refFs, refSFC := res.Inputs.Reference()

	rows := [][3]string{
		{"Specific thrust (N s/kg)", fmt.Sprintf("%.1f", res.SpecificThrust), delta(refFs, dFs)},
		{"SFC (kg/(N h))", fmt.Sprintf("%.4f", res.SFC), delta(refSFC, dSFC)},
		{"Net thrust (kN)", fmt.Sprintf("%.2f", res.NetThrust/1000), ""},
		{"Air mass flow (kg/s)", fmt.Sprintf("%.2f", res.MassFlowActual), ""},
		{"Fuel-air ratio", fmt.Sprintf("%.4f", res.FuelMassRel), ""},
		{"Exit velocity (m/s)", fmt.Sprintf("%.1f", res.ExitVelocity), ""},
		{"Overall pressure ratio", fmt.Sprintf("%.2f", res.OverallPressureRatio), ""},
		{"Propulsive efficiency", fmt.Sprintf("%.3f", res.PropulsiveEfficiency), ""},
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(225, 230, 240)
	pdf.CellFormat(60, 7, "Performance", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Value", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "vs reference", "1", 0, "C", true, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range rows {
		pdf.CellFormat(60, 6, r[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, r[1], "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, r[2], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

func delta(ref, rel float64) string {
	if ref == 0 {
		return "-"
	}
	return fmt.Sprintf("%.4g (%+.1f%%)", ref, rel*100)
}
