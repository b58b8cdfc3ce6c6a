package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"turbocycle/internal/cycle"
	"turbocycle/internal/models"

	"github.com/spf13/viper"
)

// ConfigPathEnv names the variable holding an explicit config file path
const ConfigPathEnv = "TURBOCYCLE_CONFIG_PATH"

// Config holds all configuration for the CLI and the daemon
type Config struct {
	DBPath string
	Engine cycle.EngineInputs
	Sweep  SweepConfig
	HTTP   HTTPConfig
	Log    LogConfig
}

// SweepConfig holds sweep execution and refresh settings
type SweepConfig struct {
	Workers         int
	Kinds           []models.SweepKind
	RefreshInterval time.Duration // zero runs each sweep once at startup
	BatchSize       int
	FlushInterval   time.Duration
}

// HTTPConfig holds API server settings
type HTTPConfig struct {
	Addr            string
	RateLimit       float64 // requests per second per client
	RateBurst       int
	ShutdownTimeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("db_path", "turbocycle.db")
	v.SetDefault("sweep.workers", 0)
	v.SetDefault("sweep.kinds", []string{"opr", "bypass", "tt4", "envelope"})
	v.SetDefault("sweep.refresh_interval", "0s")
	v.SetDefault("sweep.batch_size", 500)
	v.SetDefault("sweep.flush_interval", "1s")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.rate_limit", 5.0)
	v.SetDefault("http.rate_burst", 10)
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	if err := setEngineDefaults(v); err != nil {
		return nil, err
	}

	// Set config file name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Set config file search paths
	v.AddConfigPath("/etc/turbocycle")
	v.AddConfigPath(".")

	// Explicit path, set by the -config flag in main.go
	if configPath := os.Getenv(ConfigPathEnv); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Read config file (if it exists)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults + env vars
	}

	// Set environment variable prefix
	v.SetEnvPrefix("TURBOCYCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		DBPath: v.GetString("db_path"),
		Sweep: SweepConfig{
			Workers:         v.GetInt("sweep.workers"),
			RefreshInterval: v.GetDuration("sweep.refresh_interval"),
			BatchSize:       v.GetInt("sweep.batch_size"),
			FlushInterval:   v.GetDuration("sweep.flush_interval"),
		},
		HTTP: HTTPConfig{
			Addr:            v.GetString("http.addr"),
			RateLimit:       v.GetFloat64("http.rate_limit"),
			RateBurst:       v.GetInt("http.rate_burst"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	kinds, err := parseKinds(v.GetStringSlice("sweep.kinds"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Sweep.Kinds = kinds

	// Unmarshal walks every key, so engine.* env overrides apply
	engine := struct {
		Engine cycle.EngineInputs `mapstructure:"engine"`
	}{Engine: cycle.DefaultInputs()}
	if err := v.Unmarshal(&engine); err != nil {
		return nil, fmt.Errorf("error decoding engine inputs: %w", err)
	}
	cfg.Engine = engine.Engine

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setEngineDefaults registers every engine input so that
// TURBOCYCLE_ENGINE_<FIELD> variables are picked up
func setEngineDefaults(v *viper.Viper) error {
	raw, err := json.Marshal(cycle.DefaultInputs())
	if err != nil {
		return fmt.Errorf("failed to encode default engine inputs: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("failed to decode default engine inputs: %w", err)
	}
	for k, val := range fields {
		v.SetDefault("engine."+k, val)
	}
	return nil
}

func parseKinds(names []string) ([]models.SweepKind, error) {
	kinds := make([]models.SweepKind, 0, len(names))
	seen := map[models.SweepKind]bool{}
	for _, name := range names {
		// env values arrive as one comma separated string
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			k, err := models.ParseSweepKind(part)
			if err != nil {
				return nil, err
			}
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, k)
			}
		}
	}
	return kinds, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	if cfg.Sweep.Workers < 0 {
		return fmt.Errorf("sweep.workers must not be negative")
	}

	if cfg.Sweep.RefreshInterval < 0 {
		return fmt.Errorf("sweep.refresh_interval must not be negative")
	}

	if cfg.Sweep.BatchSize <= 0 {
		return fmt.Errorf("sweep.batch_size must be greater than 0")
	}

	if cfg.Sweep.FlushInterval <= 0 {
		return fmt.Errorf("sweep.flush_interval must be greater than 0")
	}

	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}

	if cfg.HTTP.RateLimit <= 0 {
		return fmt.Errorf("http.rate_limit must be greater than 0")
	}

	if cfg.HTTP.RateBurst <= 0 {
		return fmt.Errorf("http.rate_burst must be greater than 0")
	}

	if err := cfg.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
