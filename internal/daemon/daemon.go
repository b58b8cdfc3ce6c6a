package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"turbocycle/internal/api"
	"turbocycle/internal/cycle"
	"turbocycle/internal/database"
	"turbocycle/internal/models"
	"turbocycle/internal/scheduler"
	"turbocycle/internal/sweep"
	"turbocycle/internal/tasks"
)

// Daemon refreshes the configured sweeps and serves the HTTP API
type Daemon struct {
	ctx             context.Context
	cancel          context.CancelFunc
	scheduler       *scheduler.Scheduler
	database        database.Repository
	collector       *tasks.PointCollector
	pointChan       chan models.SweepPoint
	server          *http.Server
	shutdownTimeout time.Duration
	collectorDone   chan struct{}
	serverDone      chan struct{}
}

// Config holds daemon configuration
type Config struct {
	DBPath          string
	Engine          cycle.EngineInputs // baseline for scheduled sweeps and API defaults
	Kinds           []models.SweepKind // sweeps refreshed by the scheduler
	Workers         int                // sweep pool size, 0 uses GOMAXPROCS
	RefreshInterval time.Duration      // 0 runs each sweep once at startup
	BatchSize       int                // points per database transaction
	FlushInterval   time.Duration      // flush a partial batch after this time
	HTTPAddr        string
	RateLimit       float64
	RateBurst       int
	ShutdownTimeout time.Duration
}

// New creates a new daemon instance
func New(cfg Config) (*Daemon, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("HTTPAddr is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize database
	db, err := database.New(cfg.DBPath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Configure batch settings
	batchSize := 500
	if cfg.BatchSize > 0 {
		batchSize = cfg.BatchSize
	}
	flushInterval := 1 * time.Second
	if cfg.FlushInterval > 0 {
		flushInterval = cfg.FlushInterval
	}
	shutdownTimeout := 5 * time.Second
	if cfg.ShutdownTimeout > 0 {
		shutdownTimeout = cfg.ShutdownTimeout
	}

	// Buffered so sweeps rarely wait on the database
	pointChan := make(chan models.SweepPoint, 4*batchSize)
	collector := tasks.NewPointCollectorWithConfig(db.Points(), pointChan, batchSize, flushInterval)

	runner := sweep.NewRunner(cfg.Workers)
	sched := scheduler.New(ctx)
	for _, kind := range cfg.Kinds {
		spec, err := sweep.DefaultSpec(kind)
		if err != nil {
			cancel()
			db.Close()
			return nil, err
		}
		sched.AddTask(tasks.NewSweepTask(runner, db.Runs(), pointChan, spec, cfg.Engine, cfg.RefreshInterval))
	}

	handler := api.NewHandler(db, runner, cfg.Engine)
	router := api.NewRouter(handler, api.Options{RateLimit: cfg.RateLimit, RateBurst: cfg.RateBurst})

	return &Daemon{
		ctx:             ctx,
		cancel:          cancel,
		scheduler:       sched,
		database:        db,
		collector:       collector,
		pointChan:       pointChan,
		server:          api.NewServer(cfg.HTTPAddr, router),
		shutdownTimeout: shutdownTimeout,
		collectorDone:   make(chan struct{}),
		serverDone:      make(chan struct{}),
	}, nil
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	// The collector drains pointChan until Stop closes it
	go func() {
		defer close(d.collectorDone)
		if err := d.collector.Start(context.Background()); err != nil {
			slog.Error("Point collector stopped", "error", err)
		}
	}()

	d.scheduler.Start()

	go func() {
		defer close(d.serverDone)
		slog.Info("Starting HTTP server", "addr", d.server.Addr)
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err)
			d.cancel()
		}
	}()

	slog.Info("Daemon started successfully")
	return nil
}

// Done is closed when the daemon can no longer serve
func (d *Daemon) Done() <-chan struct{} {
	return d.ctx.Done()
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.shutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
	}
	<-d.serverDone

	d.cancel()
	d.scheduler.Stop()

	// No task sends after the scheduler stops, flush what is left
	close(d.pointChan)
	<-d.collectorDone

	if err := d.database.Close(); err != nil {
		slog.Error("Error closing database", "error", err)
	}

	slog.Info("Daemon stopped")
	return nil
}
