package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"turbocycle/internal/cycle"
	"turbocycle/internal/models"

	"github.com/sourcegraph/conc/pool"
)

// Reasons reported on invalid points
const (
	ReasonThermalLimit      = "thermal limit: Tt3 exceeds Tt4"
	ReasonNonPositiveThrust = "non-positive thrust"
	ReasonSFCCutoff         = "SFC above cutoff"
)

// Result holds every evaluated point of one sweep in grid order
type Result struct {
	Spec   Spec
	Inputs cycle.EngineInputs
	Points []models.SweepPoint

	// Optimum is the valid point with the lowest SFC, nil when none is valid
	Optimum *models.SweepPoint
	// Design is the base configuration placed on the sweep axis
	Design models.SweepPoint
	// Grid is only set for envelope sweeps
	Grid *Grid
}

// Valid returns the points usable for plotting
func (r *Result) Valid() []models.SweepPoint {
	out := make([]models.SweepPoint, 0, len(r.Points))
	for _, p := range r.Points {
		if p.Valid {
			out = append(out, p)
		}
	}
	return out
}

// Run summarises the result as an unsaved sweep run
func (r *Result) Run() *models.SweepRun {
	run := &models.SweepRun{
		Kind:       r.Spec.Kind,
		Inputs:     r.Inputs,
		PointCount: len(r.Points),
	}
	if r.Optimum != nil {
		run.HasOptimum = true
		run.OptimumX = r.Optimum.X
		run.OptimumY = r.Optimum.Y
	}
	return run
}

// Runner evaluates sweep grids on a bounded pool of goroutines.
// Each grid point is an independent cycle.Solve call.
type Runner struct {
	workers int
}

// NewRunner creates a runner; workers <= 0 uses GOMAXPROCS
func NewRunner(workers int) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{workers: workers}
}

// Workers is the pool size
func (r *Runner) Workers() int {
	return r.workers
}

// Run evaluates spec against the base inputs
func (r *Runner) Run(ctx context.Context, spec Spec, in cycle.EngineInputs) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	slog.Debug("Starting sweep", "kind", spec.Kind, "points", spec.Size(), "workers", r.workers)

	var (
		res *Result
		err error
	)
	switch spec.Kind {
	case models.SweepEnvelope:
		res, err = r.envelope(ctx, spec, in)
	default:
		res, err = r.line(ctx, spec, in)
	}
	if err != nil {
		return nil, fmt.Errorf("%s sweep: %w", spec.Kind, err)
	}

	res.Optimum = minSFC(res.Points, spec.SFCCutoff)
	slog.Debug("Sweep finished",
		"kind", spec.Kind,
		"points", len(res.Points),
		"valid", len(res.Valid()),
		"duration", time.Since(start),
	)
	return res, nil
}

// evaluate runs fn for every index on the pool, stopping early on cancellation
func (r *Runner) evaluate(ctx context.Context, n int, fn func(i int)) error {
	p := pool.New().WithMaxGoroutines(r.workers).WithContext(ctx)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// line drives the one-dimensional kinds
func (r *Runner) line(ctx context.Context, spec Spec, in cycle.EngineInputs) (*Result, error) {
	values := spec.Values()
	if spec.Kind == models.SweepOPR {
		// HPC pressure ratios below 1 are not a compressor, skip them
		kept := values[:0:0]
		for _, opr := range values {
			if opr/in.FanPressureRatio >= 1.0 {
				kept = append(kept, opr)
			}
		}
		values = kept
	}

	points := make([]models.SweepPoint, len(values))
	err := r.evaluate(ctx, len(values), func(i int) {
		x := values[i]
		res := cycle.Solve(in, overrideFor(spec.Kind, x, in))
		points[i] = classify(spec.Kind, models.NewSweepPoint(i, x, 0, res), res, spec.SFCCutoff)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Spec:   spec,
		Inputs: in,
		Points: points,
		Design: DesignPoint(spec, in),
	}, nil
}

// envelope drives the Mach x altitude grid, row-major from sea level up
func (r *Runner) envelope(ctx context.Context, spec Spec, in cycle.EngineInputs) (*Result, error) {
	points := make([]models.SweepPoint, spec.Size())
	err := r.evaluate(ctx, len(points), func(idx int) {
		i, j := idx/spec.MachSteps, idx%spec.MachSteps
		local := in
		local.AltitudeKm = spec.AltitudeAt(i)
		local.Mach = spec.MachAt(j)
		res := cycle.Solve(local, cycle.Overrides{})
		// thrust map validity; the SFC cutoff only masks the SFC map
		points[idx] = classify(spec.Kind, models.NewSweepPoint(idx, local.Mach, local.AltitudeKm, res), res, 0)
	})
	if err != nil {
		return nil, err
	}

	grid, err := NewGrid(points, spec.SFCCutoff)
	if err != nil {
		return nil, err
	}
	return &Result{
		Spec:   spec,
		Inputs: in,
		Points: points,
		Design: DesignPoint(spec, in),
		Grid:   grid,
	}, nil
}

func overrideFor(kind models.SweepKind, x float64, in cycle.EngineInputs) cycle.Overrides {
	switch kind {
	case models.SweepOPR:
		return cycle.Overrides{}.With(cycle.OverrideHPCPressureRatio, x/in.FanPressureRatio)
	case models.SweepBypass:
		return cycle.Overrides{}.With(cycle.OverrideBypassRatio, x)
	case models.SweepTt4:
		return cycle.Overrides{}.With(cycle.OverrideTt4, x)
	}
	return cycle.Overrides{}
}

// DesignPoint places the unmodified base configuration on the sweep axis.
// Its Index is -1.
func DesignPoint(spec Spec, in cycle.EngineInputs) models.SweepPoint {
	res := cycle.Solve(in, cycle.Overrides{})
	y, cutoff := 0.0, spec.SFCCutoff
	if spec.Kind == models.SweepEnvelope {
		// as for envelope cells, the cutoff only applies to the SFC map
		y, cutoff = in.AltitudeKm, 0
	}
	return classify(spec.Kind, models.NewSweepPoint(-1, designX(spec.Kind, in), y, res), res, cutoff)
}

func designX(kind models.SweepKind, in cycle.EngineInputs) float64 {
	switch kind {
	case models.SweepOPR:
		return in.OverallPressureRatio()
	case models.SweepBypass:
		return in.BypassRatio
	case models.SweepTt4:
		return in.Tt4
	case models.SweepEnvelope:
		return in.Mach
	}
	return 0
}

// classify applies the validity rules of a sweep kind. Only the envelope
// masks thermally limited cells; line sweeps keep them and carry Limited.
func classify(kind models.SweepKind, p models.SweepPoint, res cycle.EngineResult, sfcCutoff float64) models.SweepPoint {
	p.Valid = true
	switch {
	case kind == models.SweepEnvelope && res.Limited:
		p.Invalidate(ReasonThermalLimit)
	case res.SpecificThrust <= 0:
		p.Invalidate(ReasonNonPositiveThrust)
	case sfcCutoff > 0 && res.SFC >= sfcCutoff:
		p.Invalidate(ReasonSFCCutoff)
	}
	return p
}

func minSFC(points []models.SweepPoint, cutoff float64) *models.SweepPoint {
	var best *models.SweepPoint
	for i := range points {
		p := &points[i]
		if !p.Valid || (cutoff > 0 && p.SFC >= cutoff) {
			continue
		}
		if best == nil || p.SFC < best.SFC {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
