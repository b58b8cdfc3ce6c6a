package tasks

import (
	"context"
	"log/slog"
	"time"

	"turbocycle/internal/database"
	"turbocycle/internal/models"
)

// PointCollector collects sweep points and commits them to the database in batches
type PointCollector struct {
	repo          database.PointRepository
	pointChan     <-chan models.SweepPoint
	batchSize     int           // maximum number of points in a batch before committing to database
	flushInterval time.Duration // time to flush batch even if not full
}

// Default batch size is 500 points and flush interval is 1 second
func NewPointCollector(repo database.PointRepository, pointChan <-chan models.SweepPoint) *PointCollector {
	return &PointCollector{
		repo:          repo,
		pointChan:     pointChan,
		batchSize:     500,
		flushInterval: 1 * time.Second,
	}
}

// NewPointCollectorWithConfig creates a collector with custom batch settings
func NewPointCollectorWithConfig(repo database.PointRepository, pointChan <-chan models.SweepPoint, batchSize int, flushInterval time.Duration) *PointCollector {
	return &PointCollector{
		repo:          repo,
		pointChan:     pointChan,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Start collects points until the context is cancelled or the channel is closed.
// A partial batch is flushed when flushInterval elapses without it filling up.
func (c *PointCollector) Start(ctx context.Context) error {
	batch := make([]models.SweepPoint, 0, c.batchSize)

	flushBatch := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.repo.InsertBatch(batch); err != nil {
			slog.Error("Error inserting batch of sweep points", "batch_size", len(batch), "error", err)
		} else {
			slog.Debug("Inserted batch of sweep points", "batch_size", len(batch), "run_id", batch[0].RunID)
		}
		batch = batch[:0]
	}

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushBatch()
			return ctx.Err()

		case <-ticker.C:
			flushBatch()

		case p, ok := <-c.pointChan:
			if !ok {
				flushBatch()
				return nil
			}

			batch = append(batch, p)
			if len(batch) >= c.batchSize {
				flushBatch()
			}
		}
	}
}
