package database

import (
	"database/sql"
	"errors"
	"fmt"

	"turbocycle/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the storage operations used by the daemon and the API
type Repository interface {
	Runs() RunRepository
	Points() PointRepository
	SaveSweep(run *models.SweepRun, points []models.SweepPoint) error
	Close() error
}

// DB implements the Repository interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite applies pragmas suited to bulk sweep inserts
func optimizeSQLite(db *sql.DB) error {
	// WAL lets the API read runs while the collector writes points
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA cache_size=-64000"); err != nil {
		return fmt.Errorf("failed to set cache size: %w", err)
	}

	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA temp_store=MEMORY"); err != nil {
		return fmt.Errorf("failed to set temp_store: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Runs returns the sweep run repository
func (d *DB) Runs() RunRepository {
	return NewRunRepository(d.db)
}

// Points returns the sweep point repository
func (d *DB) Points() PointRepository {
	return NewPointRepository(d.db)
}

// SaveSweep stores a run and all of its points in one transaction
func (d *DB) SaveSweep(run *models.SweepRun, points []models.SweepPoint) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(tx, run); err != nil {
		return err
	}
	for i := range points {
		points[i].RunID = run.ID
	}
	if len(points) > 0 {
		if err := insertPoints(tx, points); err != nil {
			return fmt.Errorf("failed to insert points for run %s: %w", run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	runsSchema := `CREATE TABLE IF NOT EXISTS sweep_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		inputs_json TEXT NOT NULL,
		point_count INTEGER NOT NULL DEFAULT 0,
		has_optimum INTEGER NOT NULL DEFAULT 0,
		optimum_x REAL,
		optimum_y REAL
	);`

	pointsSchema := `CREATE TABLE IF NOT EXISTS sweep_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES sweep_runs(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		fs REAL NOT NULL,
		sfc REAL NOT NULL,
		net_thrust REAL NOT NULL,
		eta_p REAL NOT NULL,
		tt3 REAL NOT NULL,
		limited INTEGER NOT NULL DEFAULT 0,
		valid INTEGER NOT NULL,
		reason TEXT,
		UNIQUE(run_id, idx)
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_sweep_runs_kind_created ON sweep_runs(kind, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sweep_points_run ON sweep_points(run_id)`,
	}

	if _, err := d.db.Exec(runsSchema); err != nil {
		return fmt.Errorf("failed to create sweep_runs table: %w", err)
	}

	if _, err := d.db.Exec(pointsSchema); err != nil {
		return fmt.Errorf("failed to create sweep_points table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
