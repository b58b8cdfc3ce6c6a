package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"turbocycle/internal/models"

	"github.com/google/uuid"
)

type RunRepository interface {
	Create(run *models.SweepRun) error
	Get(id string) (*models.SweepRun, error)
	List(kind models.SweepKind, limit int) ([]*models.SweepRun, error)
	Latest(kind models.SweepKind) (*models.SweepRun, error)
	UpdateSummary(run *models.SweepRun) error
}

type runRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) RunRepository {
	return &runRepository{db: db}
}

// Create inserts a run, assigning an ID and creation time when they are empty
func (r *runRepository) Create(run *models.SweepRun) error {
	return insertRun(r.db, run)
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

func insertRun(ex execer, run *models.SweepRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	inputs, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}

	_, err = ex.Exec(`INSERT INTO sweep_runs (
		id, kind, created_at, inputs_json, point_count, has_optimum, optimum_x, optimum_y
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.CreatedAt, string(inputs),
		run.PointCount, run.HasOptimum, run.OptimumX, run.OptimumY,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// UpdateSummary rewrites the point count and optimum of an existing run
func (r *runRepository) UpdateSummary(run *models.SweepRun) error {
	result, err := r.db.Exec(`UPDATE sweep_runs
		SET point_count = ?, has_optimum = ?, optimum_x = ?, optimum_y = ?
		WHERE id = ?`,
		run.PointCount, run.HasOptimum, run.OptimumX, run.OptimumY, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

func (r *runRepository) Get(id string) (*models.SweepRun, error) {
	row := r.db.QueryRow(`SELECT id, kind, created_at, inputs_json, point_count, has_optimum, optimum_x, optimum_y
		FROM sweep_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// Latest returns the most recent run of a kind whose points are all stored.
// Runs still being filled by the collector are skipped.
func (r *runRepository) Latest(kind models.SweepKind) (*models.SweepRun, error) {
	row := r.db.QueryRow(`SELECT id, kind, created_at, inputs_json, point_count, has_optimum, optimum_x, optimum_y
		FROM sweep_runs r
		WHERE kind = ?
		AND point_count = (SELECT COUNT(*) FROM sweep_points p WHERE p.run_id = r.id)
		ORDER BY created_at DESC LIMIT 1`, string(kind))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest %s run: %w", kind, ErrNotFound)
	}
	return run, err
}

// List returns runs newest first. An empty kind lists every kind.
func (r *runRepository) List(kind models.SweepKind, limit int) ([]*models.SweepRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, kind, created_at, inputs_json, point_count, has_optimum, optimum_x, optimum_y
		FROM sweep_runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.SweepRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.SweepRun, error) {
	var (
		run    models.SweepRun
		kind   string
		inputs string
		optX   sql.NullFloat64
		optY   sql.NullFloat64
	)
	if err := s.Scan(&run.ID, &kind, &run.CreatedAt, &inputs, &run.PointCount, &run.HasOptimum, &optX, &optY); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Kind = models.SweepKind(kind)
	run.OptimumX = optX.Float64
	run.OptimumY = optY.Float64
	if err := json.Unmarshal([]byte(inputs), &run.Inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs of run %s: %w", run.ID, err)
	}
	return &run, nil
}
