package daemon

import (
	"path/filepath"
	"testing"
	"time"

	"turbocycle/internal/cycle"
	"turbocycle/internal/database"
	"turbocycle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAddr(t *testing.T) {
	_, err := New(Config{DBPath: filepath.Join(t.TempDir(), "d.db")})
	assert.Error(t, err)
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(Config{
		DBPath:   filepath.Join(t.TempDir(), "d.db"),
		HTTPAddr: "127.0.0.1:0",
		Kinds:    []models.SweepKind{"altitude"},
	})
	assert.Error(t, err)
}

func TestDaemon_RunOnceSweepIsPersisted(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "d.db")
	d, err := New(Config{
		DBPath:        dbPath,
		Engine:        cycle.DefaultInputs(),
		Kinds:         []models.SweepKind{models.SweepTt4},
		Workers:       2,
		BatchSize:     8,
		FlushInterval: 10 * time.Millisecond,
		HTTPAddr:      "127.0.0.1:0",
		RateLimit:     10,
		RateBurst:     10,
	})
	require.NoError(t, err)
	require.NoError(t, d.Start())

	// the run-once task returns after streaming its points
	done := make(chan struct{})
	go func() {
		d.scheduler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("sweep task did not finish")
	}

	require.NoError(t, d.Stop())

	db, err := database.New(dbPath)
	require.NoError(t, err)
	defer db.Close()

	run, err := db.Runs().Latest(models.SweepTt4)
	require.NoError(t, err)
	points, err := db.Points().ListByRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, points, run.PointCount)
}
