package report

import (
	"fmt"
	"image/color"
	"io"

	"turbocycle/internal/sweep"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// maskedColor fills cells without a value
var maskedColor = color.Gray{Y: 0xd8}

// gridXYZ adapts one envelope map to plotter.GridXYZ.
// Columns are Mach values, rows altitudes.
type gridXYZ struct {
	g *sweep.Grid
	m [][]float64
}

func (x gridXYZ) Dims() (c, r int)   { return len(x.g.Machs), len(x.g.Altitudes) }
func (x gridXYZ) Z(c, r int) float64 { return x.m[r][c] }
func (x gridXYZ) X(c int) float64    { return x.g.Machs[c] }
func (x gridXYZ) Y(r int) float64    { return x.g.Altitudes[r] }

// EnvelopePNG draws one envelope map as a PNG heat map
func EnvelopePNG(w io.Writer, g *sweep.Grid, m sweep.Metric) error {
	lo, hi, ok := g.Range(m)
	if !ok {
		return fmt.Errorf("%s map: %w", m, ErrNoPoints)
	}
	if hi == lo {
		hi = lo + 1
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo)
	cm.SetMax(hi)

	h := plotter.NewHeatMap(gridXYZ{g: g, m: g.Map(m)}, cm.Palette(255))
	h.Min, h.Max = lo, hi
	h.NaN = maskedColor

	p := plot.New()
	switch m {
	case sweep.MetricThrust:
		p.Title.Text = fmt.Sprintf("Net thrust (kN), %.4g to %.4g", lo, hi)
	default:
		p.Title.Text = fmt.Sprintf("SFC (kg/(N h)), %.4g to %.4g", lo, hi)
	}
	p.X.Label.Text = "Mach"
	p.Y.Label.Text = "Altitude (km)"
	p.Add(h)

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}
