package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"turbocycle/internal/config"
	"turbocycle/internal/cycle"
	"turbocycle/internal/daemon"
	"turbocycle/internal/database"
	"turbocycle/internal/models"
	"turbocycle/internal/report"
	"turbocycle/internal/sweep"

	"github.com/joho/godotenv"
)

func initLogger(cfg *config.Config) {
	var logLevel slog.Level
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	// stdout carries command output, so logs go to stderr
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [-config file] <command> [flags]

Commands:
  solve          evaluate the configured engine (default)
  sweep <kind>   run an opr, bypass, tt4 or envelope sweep
  serve          refresh sweeps on a schedule and serve the HTTP API

Global flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	flag.Usage = usage
	flag.Parse()

	// A missing .env is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Warn("Failed to load .env file", "error", err)
	}

	if *configPath != "" {
		os.Setenv(config.ConfigPathEnv, *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		// Use basic logging for config errors since logger isn't initialized yet
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	args := flag.Args()
	cmd := "solve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "solve":
		err = runSolve(cfg, args)
	case "sweep":
		err = runSweep(cfg, args)
	case "serve":
		err = runServe(cfg)
	default:
		usage()
		err = fmt.Errorf("unknown command: %s", cmd)
	}
	if err != nil {
		slog.Error("Command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

// overrideFlag collects repeated -set key=value flags
type overrideFlag map[string]float64

func (o overrideFlag) String() string { return fmt.Sprint(map[string]float64(o)) }

func (o overrideFlag) Set(s string) error {
	key, val, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	o[strings.TrimSpace(key)] = v
	return nil
}

func runSolve(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	pdfPath := fs.String("pdf", "", "Write the station sheet PDF to this file")
	overrides := overrideFlag{}
	fs.Var(overrides, "set", "Override hpc_pressure_ratio, bypass_ratio or tt4 (key=value, repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ov, err := cycle.NewOverrides(overrides)
	if err != nil {
		return err
	}
	if err := ov.Apply(cfg.Engine).Validate(); err != nil {
		return fmt.Errorf("overrides: %w", err)
	}
	res := cycle.Solve(cfg.Engine, ov)
	if res.Limited {
		slog.Warn("Physical limit: compressor exit temperature exceeds Tt4",
			"tt3", res.Station(cycle.StationHPCExit).Tt, "tt4", res.Inputs.Tt4)
	}
	if res.Degraded != 0 {
		slog.Warn("Degraded solution", "conditions", res.Degraded.String())
	}

	if *pdfPath != "" {
		if err := writeFile(*pdfPath, func(w io.Writer) error { return report.StationSheetPDF(w, res) }); err != nil {
			return err
		}
		slog.Info("Wrote station sheet", "path", *pdfPath)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(os.Stdout, res)
	return nil
}

func printResult(w io.Writer, res cycle.EngineResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "station\tPt (kPa)\tTt (K)\tV (m/s)\tm rel\t")
	for _, id := range cycle.Stations() {
		s := res.Station(id)
		v, m := "-", "-"
		if s.Has(cycle.FieldV) {
			v = fmt.Sprintf("%.1f", s.V)
		}
		if s.Has(cycle.FieldMassRel) {
			m = fmt.Sprintf("%.3f", s.MassRel)
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.1f\t%s\t%s\t\n", id, s.Pt/1000, s.Tt, v, m)
	}
	tw.Flush()

	dFs, dSFC := res.ReferenceDelta()
	fmt.Fprintf(w, "\nFs  %.1f N·s/kg (%+.1f%% vs reference)\n", res.SpecificThrust, dFs*100)
	fmt.Fprintf(w, "SFC %.4f kg/(N·h) (%+.1f%% vs reference)\n", res.SFC, dSFC*100)
	fmt.Fprintf(w, "F   %.2f kN, W %.2f kg/s, f %.4f, OPR %.2f, eta_p %.3f\n",
		res.NetThrust/1000, res.MassFlowActual, res.FuelMassRel, res.OverallPressureRatio, res.PropulsiveEfficiency)
	if res.Limited {
		fmt.Fprintln(w, "PHYSICAL LIMIT: Tt3 exceeds Tt4, results not valid")
	}
}

func runSweep(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("sweep requires a kind (opr, bypass, tt4 or envelope)")
	}
	kind, err := models.ParseSweepKind(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	save := fs.Bool("save", false, "Store the run in the database")
	xlsxPath := fs.String("xlsx", "", "Write the points to an XLSX workbook")
	htmlPath := fs.String("html", "", "Write an HTML chart")
	pngPath := fs.String("png", "", "Write the envelope heat map PNG (envelope only)")
	metric := fs.String("metric", "sfc", "Envelope PNG metric: sfc or thrust")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	spec, err := sweep.DefaultSpec(kind)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := sweep.NewRunner(cfg.Sweep.Workers).Run(ctx, spec, cfg.Engine)
	if err != nil {
		return err
	}
	run := res.Run()

	if *save {
		db, err := database.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		if err := db.SaveSweep(run, res.Points); err != nil {
			return err
		}
		slog.Info("Stored sweep run", "run_id", run.ID)
	}

	if *xlsxPath != "" {
		if err := writeFile(*xlsxPath, func(w io.Writer) error { return report.Workbook(w, run, res.Points) }); err != nil {
			return err
		}
	}
	if *htmlPath != "" {
		render := func(w io.Writer) error { return report.LineChartHTML(w, run, res.Points) }
		if kind == models.SweepEnvelope {
			render = func(w io.Writer) error { return report.EnvelopeHTML(w, res.Grid) }
		}
		if err := writeFile(*htmlPath, render); err != nil {
			return err
		}
	}
	if *pngPath != "" {
		if res.Grid == nil {
			return fmt.Errorf("-png is only available for envelope sweeps")
		}
		m, err := sweep.ParseMetric(*metric)
		if err != nil {
			return err
		}
		if err := writeFile(*pngPath, func(w io.Writer) error { return report.EnvelopePNG(w, res.Grid, m) }); err != nil {
			return err
		}
	}

	printSweep(os.Stdout, res)
	return nil
}

func printSweep(w io.Writer, res *sweep.Result) {
	kind := res.Spec.Kind
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if kind == models.SweepEnvelope {
		fmt.Fprintln(tw, "mach\talt (km)\tFs\tSFC\tF (kN)\tvalid\t")
	} else {
		fmt.Fprintf(tw, "%s\tFs\tSFC\teta_p\tTt3 (K)\tvalid\t\n", kind)
	}
	for _, p := range res.Points {
		if kind == models.SweepEnvelope {
			fmt.Fprintf(tw, "%.3f\t%.2f\t%.1f\t%.4f\t%.2f\t%t\t\n", p.X, p.Y, p.Fs, p.SFC, p.NetThrust/1000, p.Valid)
			continue
		}
		fmt.Fprintf(tw, "%g\t%.1f\t%.4f\t%.3f\t%.1f\t%t\t\n", p.X, p.Fs, p.SFC, p.EtaP, p.Tt3, p.Valid)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d points, %d valid\n", len(res.Points), len(res.Valid()))
	if res.Optimum != nil {
		fmt.Fprintf(w, "min SFC %.4f at %s %g", res.Optimum.SFC, kind.AxisLabel(), res.Optimum.X)
		if kind == models.SweepEnvelope {
			fmt.Fprintf(w, ", altitude %g km", res.Optimum.Y)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "design %s %g: Fs %.1f, SFC %.4f\n", kind.AxisLabel(), res.Design.X, res.Design.Fs, res.Design.SFC)
}

func runServe(cfg *config.Config) error {
	d, err := daemon.New(daemon.Config{
		DBPath:          cfg.DBPath,
		Engine:          cfg.Engine,
		Kinds:           cfg.Sweep.Kinds,
		Workers:         cfg.Sweep.Workers,
		RefreshInterval: cfg.Sweep.RefreshInterval,
		BatchSize:       cfg.Sweep.BatchSize,
		FlushInterval:   cfg.Sweep.FlushInterval,
		HTTPAddr:        cfg.HTTP.Addr,
		RateLimit:       cfg.HTTP.RateLimit,
		RateBurst:       cfg.HTTP.RateBurst,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})
	if err != nil {
		return err
	}
	if err := d.Start(); err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		slog.Info("Received interrupt signal, shutting down...")
	case <-d.Done():
		slog.Warn("Daemon stopped unexpectedly, shutting down...")
	}

	if err := d.Stop(); err != nil {
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}

func writeFile(path string, render func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Debug("Wrote file", "path", path)
	return nil
}
