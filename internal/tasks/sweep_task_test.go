package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"turbocycle/internal/cycle"
	"turbocycle/internal/database"
	"turbocycle/internal/models"
	"turbocycle/internal/sweep"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunRepository is a simple mock implementation of database.RunRepository
type mockRunRepository struct {
	mu   sync.Mutex
	runs []*models.SweepRun
	err  error
}

func (m *mockRunRepository) Create(run *models.SweepRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	run.ID = "run-" + string(run.Kind)
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockRunRepository) Get(id string) (*models.SweepRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockRunRepository) List(kind models.SweepKind, limit int) ([]*models.SweepRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs, nil
}

func (m *mockRunRepository) Latest(kind models.SweepKind) (*models.SweepRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, database.ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

func (m *mockRunRepository) UpdateSummary(run *models.SweepRun) error {
	return nil
}

func tt4Spec(t *testing.T) sweep.Spec {
	spec, err := sweep.DefaultSpec(models.SweepTt4)
	require.NoError(t, err)
	return spec
}

func TestSweepTask_NameAndInterval(t *testing.T) {
	task := NewSweepTask(sweep.NewRunner(1), &mockRunRepository{}, nil, tt4Spec(t), cycle.DefaultInputs(), time.Minute)

	assert.Equal(t, "sweep:tt4", task.Name())
	assert.Equal(t, time.Minute, task.Interval())
}

func TestSweepTask_RunStreamsPoints(t *testing.T) {
	runs := &mockRunRepository{}
	spec := tt4Spec(t)
	out := make(chan models.SweepPoint, spec.Size())

	task := NewSweepTask(sweep.NewRunner(2), runs, out, spec, cycle.DefaultInputs(), 0)
	require.NoError(t, task.Run(context.Background()))
	close(out)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.Equal(t, models.SweepTt4, run.Kind)
	assert.Equal(t, spec.Size(), run.PointCount)

	var got []models.SweepPoint
	for p := range out {
		got = append(got, p)
	}
	require.Len(t, got, spec.Size())
	for i, p := range got {
		assert.Equal(t, run.ID, p.RunID)
		assert.Equal(t, i, p.Index)
	}
}

func TestSweepTask_CreateError(t *testing.T) {
	runs := &mockRunRepository{err: errors.New("locked")}
	out := make(chan models.SweepPoint, 100)

	task := NewSweepTask(sweep.NewRunner(1), runs, out, tt4Spec(t), cycle.DefaultInputs(), 0)
	err := task.Run(context.Background())

	assert.Error(t, err)
	assert.Empty(t, out)
}

func TestSweepTask_CancelledWhileStreaming(t *testing.T) {
	runs := &mockRunRepository{}
	// unbuffered and never read
	out := make(chan models.SweepPoint)

	ctx, cancel := context.WithCancel(context.Background())
	task := NewSweepTask(sweep.NewRunner(1), runs, out, tt4Spec(t), cycle.DefaultInputs(), 0)

	done := make(chan error, 1)
	go func() { done <- task.Run(ctx) }()

	// let the sweep finish and block on the first send
	assert.Eventually(t, func() bool {
		runs.mu.Lock()
		defer runs.mu.Unlock()
		return len(runs.runs) == 1
	}, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("task did not stop")
	}
}

func TestSweepTask_WithCollector(t *testing.T) {
	runs := &mockRunRepository{}
	points := &mockPointRepository{}
	spec := tt4Spec(t)
	ch := make(chan models.SweepPoint, 8)

	collector := NewPointCollectorWithConfig(points, ch, 10, 20*time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- collector.Start(context.Background()) }()

	task := NewSweepTask(sweep.NewRunner(4), runs, ch, spec, cycle.DefaultInputs(), 0)
	require.NoError(t, task.Run(context.Background()))
	close(ch)
	require.NoError(t, <-done)

	stored, err := points.ListByRun(runs.runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, stored, spec.Size())
}
