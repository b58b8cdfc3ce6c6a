package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"turbocycle/internal/cycle"
	"turbocycle/internal/database"
	"turbocycle/internal/models"
	"turbocycle/internal/sweep"
)

// SweepTask re-runs one sweep over the baseline engine and streams its
// points to a collector. It implements scheduler.Task.
type SweepTask struct {
	runner   *sweep.Runner
	runs     database.RunRepository
	out      chan<- models.SweepPoint
	spec     sweep.Spec
	inputs   cycle.EngineInputs
	interval time.Duration
}

func NewSweepTask(runner *sweep.Runner, runs database.RunRepository, out chan<- models.SweepPoint, spec sweep.Spec, inputs cycle.EngineInputs, interval time.Duration) *SweepTask {
	return &SweepTask{
		runner:   runner,
		runs:     runs,
		out:      out,
		spec:     spec,
		inputs:   inputs,
		interval: interval,
	}
}

func (t *SweepTask) Name() string {
	return "sweep:" + string(t.spec.Kind)
}

func (t *SweepTask) Interval() time.Duration {
	return t.interval
}

// Run evaluates the sweep, records the run and hands every point to the collector
func (t *SweepTask) Run(ctx context.Context) error {
	res, err := t.runner.Run(ctx, t.spec, t.inputs)
	if err != nil {
		return err
	}

	run := res.Run()
	if err := t.runs.Create(run); err != nil {
		return fmt.Errorf("failed to record %s run: %w", t.spec.Kind, err)
	}

	for _, p := range res.Points {
		p.RunID = run.ID
		select {
		case t.out <- p:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	attrs := []any{"task", t.Name(), "run_id", run.ID, "points", run.PointCount, "valid", len(res.Valid())}
	if run.HasOptimum {
		attrs = append(attrs, "optimum_x", run.OptimumX, "optimum_y", run.OptimumY)
	}
	slog.Info("Sweep completed", attrs...)
	return nil
}
