package database

import (
	"database/sql"
	"fmt"

	"turbocycle/internal/models"
)

type PointRepository interface {
	InsertBatch(points []models.SweepPoint) error
	ListByRun(runID string) ([]models.SweepPoint, error)
}

type pointRepository struct {
	db *sql.DB
}

func NewPointRepository(db *sql.DB) PointRepository {
	return &pointRepository{db: db}
}

// InsertBatch inserts sweep points in a single transaction.
// Re-inserting a point with the same run and index replaces it.
func (r *pointRepository) InsertBatch(points []models.SweepPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertPoints(tx, points); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func insertPoints(ex execer, points []models.SweepPoint) error {
	stmt, err := ex.Prepare(`INSERT OR REPLACE INTO sweep_points (
		run_id, idx, x, y, fs, sfc, net_thrust, eta_p, tt3, limited, valid, reason
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if p.RunID == "" {
			return fmt.Errorf("point %d has no run id", p.Index)
		}
		if _, err := stmt.Exec(
			p.RunID, p.Index, p.X, p.Y,
			p.Fs, p.SFC, p.NetThrust, p.EtaP, p.Tt3,
			p.Limited, p.Valid, p.Reason,
		); err != nil {
			return fmt.Errorf("failed to insert point: %w", err)
		}
	}
	return nil
}

// ListByRun returns the points of a run in grid order
func (r *pointRepository) ListByRun(runID string) ([]models.SweepPoint, error) {
	rows, err := r.db.Query(`SELECT run_id, idx, x, y, fs, sfc, net_thrust, eta_p, tt3, limited, valid, reason
		FROM sweep_points WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	points := make([]models.SweepPoint, 0)
	for rows.Next() {
		var (
			p      models.SweepPoint
			reason sql.NullString
		)
		if err := rows.Scan(&p.RunID, &p.Index, &p.X, &p.Y, &p.Fs, &p.SFC, &p.NetThrust, &p.EtaP, &p.Tt3, &p.Limited, &p.Valid, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		p.Reason = reason.String
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	return points, nil
}
