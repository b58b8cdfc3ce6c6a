package report

import (
	"errors"
	"fmt"
	"io"

	"turbocycle/internal/models"
	"turbocycle/internal/sweep"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// ErrNoPoints is returned when there is nothing to draw
var ErrNoPoints = errors.New("no points to render")

// series is one plotted figure of a sweep point
type series struct {
	name  string
	unit  string
	value func(p models.SweepPoint) float64
}

var (
	seriesSFC  = series{"SFC", "kg/(N·h)", func(p models.SweepPoint) float64 { return p.SFC }}
	seriesFs   = series{"Specific thrust", "N·s/kg", func(p models.SweepPoint) float64 { return p.Fs }}
	seriesEtaP = series{"Propulsive efficiency", "-", func(p models.SweepPoint) float64 { return p.EtaP }}
)

// axesFor picks the left and right axis figures of a one-dimensional sweep
func axesFor(kind models.SweepKind) (left, right series) {
	switch kind {
	case models.SweepBypass:
		return seriesEtaP, seriesSFC
	case models.SweepTt4:
		return seriesFs, seriesSFC
	default:
		return seriesSFC, seriesFs
	}
}

// LineChartHTML renders a one-dimensional sweep as a dual axis line chart.
// Invalid points are left out; the optimum and design point are marked.
func LineChartHTML(w io.Writer, run *models.SweepRun, points []models.SweepPoint) error {
	if run.Kind == models.SweepEnvelope {
		return fmt.Errorf("line chart: %s sweeps are rendered as a heat map", run.Kind)
	}

	left, right := axesFor(run.Kind)
	leftData := make([]opts.LineData, 0, len(points))
	rightData := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		if !p.Valid {
			continue
		}
		leftData = append(leftData, opts.LineData{Value: []any{p.X, left.value(p)}})
		rightData = append(rightData, opts.LineData{Value: []any{p.X, right.value(p)}})
	}
	if len(leftData) == 0 {
		return ErrNoPoints
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s sweep", run.Kind),
			Theme:     types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s vs %s", left.name, run.Kind.AxisLabel()),
			Subtitle: fmt.Sprintf("run %s, %d points", run.ID, run.PointCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:  run.Kind.AxisLabel(),
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  fmt.Sprintf("%s (%s)", left.name, left.unit),
			Type:  "value",
			Scale: opts.Bool(true),
		}),
	)
	line.ExtendYAxis(opts.YAxis{
		Name:  fmt.Sprintf("%s (%s)", right.name, right.unit),
		Type:  "value",
		Scale: opts.Bool(true),
	})

	marks := markPoints(run, points, left)
	line.AddSeries(left.name, leftData, marks...)
	line.AddSeries(right.name, rightData, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))

	return line.Render(w)
}

// markPoints labels the base configuration and the lowest SFC point
func markPoints(run *models.SweepRun, points []models.SweepPoint, s series) []charts.SeriesOpts {
	var items []opts.MarkPointNameCoordItem

	if spec, err := sweep.DefaultSpec(run.Kind); err == nil {
		design := sweep.DesignPoint(spec, run.Inputs)
		if design.Valid {
			items = append(items, opts.MarkPointNameCoordItem{
				Name:       "design",
				Coordinate: []any{design.X, s.value(design)},
				Label:      &opts.Label{Show: opts.Bool(true), Formatter: "design"},
			})
		}
	}

	if run.HasOptimum {
		for _, p := range points {
			if p.Valid && p.X == run.OptimumX && p.Y == run.OptimumY {
				items = append(items, opts.MarkPointNameCoordItem{
					Name:       "optimum",
					Coordinate: []any{p.X, s.value(p)},
					Label:      &opts.Label{Show: opts.Bool(true), Formatter: "min SFC"},
				})
				break
			}
		}
	}

	out := make([]charts.SeriesOpts, 0, len(items))
	for _, it := range items {
		out = append(out, charts.WithMarkPointNameCoordItemOpts(it))
	}
	return out
}

// EnvelopeHTML renders both envelope maps as heat maps on one page
func EnvelopeHTML(w io.Writer, g *sweep.Grid) error {
	page := components.NewPage()
	page.PageTitle = "Flight envelope"

	for _, m := range []sweep.Metric{sweep.MetricSFC, sweep.MetricThrust} {
		hm, err := envelopeHeatMap(g, m)
		if err != nil {
			return err
		}
		page.AddCharts(hm)
	}
	return page.Render(w)
}

func envelopeHeatMap(g *sweep.Grid, m sweep.Metric) (*charts.HeatMap, error) {
	lo, hi, ok := g.Range(m)
	if !ok {
		return nil, fmt.Errorf("%s map: %w", m, ErrNoPoints)
	}

	machs := make([]string, len(g.Machs))
	for j, v := range g.Machs {
		machs[j] = fmt.Sprintf("%.2f", v)
	}
	alts := make([]string, len(g.Altitudes))
	for i, v := range g.Altitudes {
		alts[i] = fmt.Sprintf("%.1f", v)
	}

	data := make([]opts.HeatMapData, 0, len(g.Machs)*len(g.Altitudes))
	values := g.Map(m)
	for i := range g.Altitudes {
		for j := range g.Machs {
			if g.Masked(m, i, j) {
				// "-" leaves the cell empty
				data = append(data, opts.HeatMapData{Value: [3]any{j, i, "-"}})
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]any{j, i, values[i][j]}})
		}
	}

	title, unit := "SFC", "kg/(N·h)"
	if m == sweep.MetricThrust {
		title, unit = "Net thrust", "kN"
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s (%s)", title, unit),
			Subtitle: fmt.Sprintf("min %.4g, max %.4g", lo, hi),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Mach",
			Type:      "category",
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "Altitude (km)",
			Type:      "category",
			Data:      alts,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#313695", "#4575b4", "#abd9e9", "#fee090", "#f46d43", "#a50026"},
			},
		}),
	)
	hm.SetXAxis(machs).AddSeries(title, data)
	return hm, nil
}
