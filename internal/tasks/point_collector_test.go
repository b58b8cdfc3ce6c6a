package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"turbocycle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPointRepository is a simple mock implementation of database.PointRepository
type mockPointRepository struct {
	mu      sync.Mutex
	points  []models.SweepPoint
	batches int
	errors  []error
}

func (m *mockPointRepository) InsertBatch(points []models.SweepPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, points...)
	m.batches++
	if len(m.errors) > 0 {
		err := m.errors[0]
		m.errors = m.errors[1:]
		return err
	}
	return nil
}

func (m *mockPointRepository) ListByRun(runID string) ([]models.SweepPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SweepPoint, 0)
	for _, p := range m.points {
		if p.RunID == runID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPointRepository) counts() (points, batches int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points), m.batches
}

func TestNewPointCollector(t *testing.T) {
	repo := &mockPointRepository{}
	pointChan := make(chan models.SweepPoint, 10)

	collector := NewPointCollector(repo, pointChan)

	require.NotNil(t, collector)
	assert.Equal(t, 500, collector.batchSize)
	assert.Equal(t, 1*time.Second, collector.flushInterval)
}

func TestNewPointCollectorWithConfig(t *testing.T) {
	repo := &mockPointRepository{}
	pointChan := make(chan models.SweepPoint, 10)

	collector := NewPointCollectorWithConfig(repo, pointChan, 50, 500*time.Millisecond)

	require.NotNil(t, collector)
	assert.Equal(t, 50, collector.batchSize)
	assert.Equal(t, 500*time.Millisecond, collector.flushInterval)
}

func TestPointCollector_BatchFlush(t *testing.T) {
	repo := &mockPointRepository{}
	pointChan := make(chan models.SweepPoint, 100)
	batchSize := 5

	// long interval so only the size trigger can flush
	collector := NewPointCollectorWithConfig(repo, pointChan, batchSize, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = collector.Start(ctx)
	}()

	for i := 0; i < batchSize; i++ {
		pointChan <- models.SweepPoint{RunID: "run", Index: i}
	}

	assert.Eventually(t, func() bool {
		n, batches := repo.counts()
		return n == batchSize && batches == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPointCollector_IntervalFlush(t *testing.T) {
	repo := &mockPointRepository{}
	pointChan := make(chan models.SweepPoint, 100)

	collector := NewPointCollectorWithConfig(repo, pointChan, 100, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = collector.Start(ctx)
	}()

	pointChan <- models.SweepPoint{RunID: "run", Index: 0}
	pointChan <- models.SweepPoint{RunID: "run", Index: 1}

	// partial batch is written once the interval elapses
	assert.Eventually(t, func() bool {
		n, _ := repo.counts()
		return n == 2
	}, time.Second, 10*time.Millisecond)
}

func TestPointCollector_ChannelClose(t *testing.T) {
	repo := &mockPointRepository{}
	pointChan := make(chan models.SweepPoint, 10)

	collector := NewPointCollectorWithConfig(repo, pointChan, 100, time.Hour)

	for i := 0; i < 3; i++ {
		pointChan <- models.SweepPoint{RunID: "run", Index: i}
	}
	close(pointChan)

	err := collector.Start(context.Background())
	assert.NoError(t, err)

	n, batches := repo.counts()
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, batches)
}

func TestPointCollector_ContextCancelFlushes(t *testing.T) {
	repo := &mockPointRepository{}
	pointChan := make(chan models.SweepPoint, 10)

	collector := NewPointCollectorWithConfig(repo, pointChan, 100, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- collector.Start(ctx)
	}()

	pointChan <- models.SweepPoint{RunID: "run", Index: 0}
	assert.Eventually(t, func() bool { return len(pointChan) == 0 }, time.Second, 5*time.Millisecond)
	// give the collector a moment to append the received point
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}

	n, _ := repo.counts()
	assert.Equal(t, 1, n)
}

func TestPointCollector_InsertErrorKeepsRunning(t *testing.T) {
	repo := &mockPointRepository{errors: []error{errors.New("disk full")}}
	pointChan := make(chan models.SweepPoint, 10)

	collector := NewPointCollectorWithConfig(repo, pointChan, 1, time.Hour)

	pointChan <- models.SweepPoint{RunID: "run", Index: 0}
	pointChan <- models.SweepPoint{RunID: "run", Index: 1}
	close(pointChan)

	err := collector.Start(context.Background())
	assert.NoError(t, err)

	_, batches := repo.counts()
	assert.Equal(t, 2, batches)
}
