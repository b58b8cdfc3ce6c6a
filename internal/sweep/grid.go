package sweep

import (
	"fmt"
	"math"
	"sort"

	"turbocycle/internal/models"
)

// Metric selects which envelope map to read
type Metric string

const (
	MetricSFC    Metric = "sfc"    // kg/(N*h)
	MetricThrust Metric = "thrust" // kN
)

// ParseMetric accepts "sfc" or "thrust"
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricSFC, MetricThrust:
		return Metric(s), nil
	}
	return "", fmt.Errorf("invalid metric: %s (must be sfc or thrust)", s)
}

// Grid is the envelope as two masked maps indexed [altitude][mach].
// Masked cells hold NaN.
type Grid struct {
	Machs     []float64
	Altitudes []float64 // km
	SFC       [][]float64
	Thrust    [][]float64 // kN

	minSFC, maxSFC       float64
	minThrust, maxThrust float64
}

// NewGrid arranges envelope points on their Mach/altitude axes. Cells whose
// point is invalid are masked in both maps; cells at or above sfcCutoff are
// additionally masked in the SFC map.
func NewGrid(points []models.SweepPoint, sfcCutoff float64) (*Grid, error) {
	machs := uniqueSorted(points, func(p models.SweepPoint) float64 { return p.X })
	alts := uniqueSorted(points, func(p models.SweepPoint) float64 { return p.Y })
	if len(machs)*len(alts) != len(points) {
		return nil, fmt.Errorf("points do not form a full grid: %d mach x %d altitude values for %d points",
			len(machs), len(alts), len(points))
	}

	g := &Grid{
		Machs:     machs,
		Altitudes: alts,
		SFC:       nanMatrix(len(alts), len(machs)),
		Thrust:    nanMatrix(len(alts), len(machs)),
		minSFC:    math.Inf(1),
		maxSFC:    math.Inf(-1),
		minThrust: math.Inf(1),
		maxThrust: math.Inf(-1),
	}

	for _, p := range points {
		i := sort.SearchFloat64s(alts, p.Y)
		j := sort.SearchFloat64s(machs, p.X)
		if !p.Valid {
			continue
		}
		kn := p.NetThrust / 1000
		g.Thrust[i][j] = kn
		g.minThrust = math.Min(g.minThrust, kn)
		g.maxThrust = math.Max(g.maxThrust, kn)

		if sfcCutoff > 0 && p.SFC >= sfcCutoff {
			continue
		}
		g.SFC[i][j] = p.SFC
		g.minSFC = math.Min(g.minSFC, p.SFC)
		g.maxSFC = math.Max(g.maxSFC, p.SFC)
	}
	return g, nil
}

// Map returns the matrix for a metric
func (g *Grid) Map(m Metric) [][]float64 {
	if m == MetricThrust {
		return g.Thrust
	}
	return g.SFC
}

// Range returns the smallest and largest unmasked value of a metric.
// ok is false when every cell is masked.
func (g *Grid) Range(m Metric) (lo, hi float64, ok bool) {
	lo, hi = g.minSFC, g.maxSFC
	if m == MetricThrust {
		lo, hi = g.minThrust, g.maxThrust
	}
	return lo, hi, !math.IsInf(lo, 1)
}

// Masked reports whether cell (i, j) has no value in the map
func (g *Grid) Masked(m Metric, i, j int) bool {
	return math.IsNaN(g.Map(m)[i][j])
}

func uniqueSorted(points []models.SweepPoint, key func(models.SweepPoint) float64) []float64 {
	seen := make(map[float64]struct{}, len(points))
	out := make([]float64, 0)
	for _, p := range points {
		v := key(p)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func nanMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = math.NaN()
		}
	}
	return m
}
