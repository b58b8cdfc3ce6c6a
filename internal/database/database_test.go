package database

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"turbocycle/internal/cycle"
	"turbocycle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	tmpFile := filepath.Join(t.TempDir(), "turbocycle.db")
	os.Remove(tmpFile)

	db, err := New(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, db)

	return db
}

func cleanupTestDB(t *testing.T, db *DB) {
	if db != nil {
		err := db.Close()
		assert.NoError(t, err)
	}
}

func testRun(kind models.SweepKind) *models.SweepRun {
	return &models.SweepRun{
		Kind:   kind,
		Inputs: cycle.DefaultInputs(),
	}
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	assert.NotNil(t, db)
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir", "turbocycle.db"))
	assert.Error(t, err)
}

func TestRunRepository_CreateAssignsID(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	run := testRun(models.SweepOPR)
	require.NoError(t, db.Runs().Create(run))

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
}

func TestRunRepository_GetRoundTripsInputs(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	run := testRun(models.SweepBypass)
	run.Inputs.Tt4 = 1650
	run.Inputs.AfterburnerOn = false
	require.NoError(t, db.Runs().Create(run))

	got, err := db.Runs().Get(run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, models.SweepBypass, got.Kind)
	assert.Equal(t, 1650.0, got.Inputs.Tt4)
	assert.False(t, got.Inputs.AfterburnerOn)
	assert.Equal(t, run.Inputs, got.Inputs)
}

func TestRunRepository_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	_, err := db.Runs().Get("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunRepository_UpdateSummary(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	run := testRun(models.SweepOPR)
	require.NoError(t, db.Runs().Create(run))

	run.PointCount = 76
	run.HasOptimum = true
	run.OptimumX = 26
	require.NoError(t, db.Runs().UpdateSummary(run))

	got, err := db.Runs().Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 76, got.PointCount)
	assert.True(t, got.HasOptimum)
	assert.Equal(t, 26.0, got.OptimumX)

	missing := testRun(models.SweepOPR)
	missing.ID = "nope"
	assert.ErrorIs(t, db.Runs().UpdateSummary(missing), ErrNotFound)
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kinds := []models.SweepKind{models.SweepOPR, models.SweepTt4, models.SweepOPR}
	for i, k := range kinds {
		run := testRun(k)
		run.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, db.Runs().Create(run))
	}

	all, err := db.Runs().List("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))
	assert.True(t, all[1].CreatedAt.After(all[2].CreatedAt))

	opr, err := db.Runs().List(models.SweepOPR, 10)
	require.NoError(t, err)
	assert.Len(t, opr, 2)

	limited, err := db.Runs().List("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	latest, err := db.Runs().Latest(models.SweepOPR)
	require.NoError(t, err)
	assert.Equal(t, opr[0].ID, latest.ID)

	_, err = db.Runs().Latest(models.SweepEnvelope)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPointRepository_InsertBatch(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	run := testRun(models.SweepOPR)
	require.NoError(t, db.Runs().Create(run))

	points := []models.SweepPoint{
		{RunID: run.ID, Index: 1, X: 6, Fs: 900, SFC: 0.2, Valid: true},
		{RunID: run.ID, Index: 0, X: 5, Fs: 850, SFC: 0.21, Valid: true},
		{RunID: run.ID, Index: 2, X: 7, Limited: true, Valid: false, Reason: "thermal_limit"},
	}
	require.NoError(t, db.Points().InsertBatch(points))

	got, err := db.Points().ListByRun(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// returned in index order
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 5.0, got[0].X)
	assert.Equal(t, 1, got[1].Index)
	assert.False(t, got[2].Valid)
	assert.Equal(t, "thermal_limit", got[2].Reason)
	assert.True(t, got[2].Limited)
	assert.False(t, got[0].Limited)
}

func TestPointRepository_InsertBatch_Empty(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	// Empty batch should not error
	err := db.Points().InsertBatch([]models.SweepPoint{})
	assert.NoError(t, err)
}

func TestPointRepository_InsertBatch_MissingRunID(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	err := db.Points().InsertBatch([]models.SweepPoint{{Index: 0}})
	assert.Error(t, err)
}

func TestPointRepository_InsertBatch_ReplacesIndex(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	run := testRun(models.SweepTt4)
	require.NoError(t, db.Runs().Create(run))

	require.NoError(t, db.Points().InsertBatch([]models.SweepPoint{{RunID: run.ID, Index: 0, Fs: 1}}))
	require.NoError(t, db.Points().InsertBatch([]models.SweepPoint{{RunID: run.ID, Index: 0, Fs: 2}}))

	got, err := db.Points().ListByRun(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Fs)
}

func TestSaveSweep(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	run := testRun(models.SweepEnvelope)
	run.PointCount = 2
	points := []models.SweepPoint{
		{Index: 0, X: 0, Y: 0, Valid: true},
		{Index: 1, X: 0.5, Y: 0, Valid: true},
	}
	require.NoError(t, db.SaveSweep(run, points))

	got, err := db.Points().ListByRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, run.ID, p.RunID)
	}
}

func TestSaveSweep_RollsBackRunOnPointFailure(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	run := testRun(models.SweepOPR)
	run.PointCount = 2
	points := []models.SweepPoint{
		{Index: 0, X: 5, Fs: 850, Valid: true},
		// SQLite stores NaN as NULL, which the NOT NULL column rejects
		{Index: 1, X: 6, Fs: math.NaN()},
	}
	require.Error(t, db.SaveSweep(run, points))

	runs, err := db.Runs().List("", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunRepository_LatestSkipsPartialRuns(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	complete := testRun(models.SweepEnvelope)
	complete.CreatedAt = base
	complete.PointCount = 2
	require.NoError(t, db.SaveSweep(complete, []models.SweepPoint{{Index: 0}, {Index: 1}}))

	// newer run whose points are still being stored
	partial := testRun(models.SweepEnvelope)
	partial.CreatedAt = base.Add(time.Hour)
	partial.PointCount = 3
	require.NoError(t, db.Runs().Create(partial))
	require.NoError(t, db.Points().InsertBatch([]models.SweepPoint{{RunID: partial.ID, Index: 0}}))

	latest, err := db.Runs().Latest(models.SweepEnvelope)
	require.NoError(t, err)
	assert.Equal(t, complete.ID, latest.ID)

	require.NoError(t, db.Points().InsertBatch([]models.SweepPoint{
		{RunID: partial.ID, Index: 1},
		{RunID: partial.ID, Index: 2},
	}))
	latest, err = db.Runs().Latest(models.SweepEnvelope)
	require.NoError(t, err)
	assert.Equal(t, partial.ID, latest.ID)
}
