package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"stratsim/internal/blob"
	"stratsim/internal/core"
	"stratsim/internal/report"
)

const (
	// DefaultConfigFile is the config file looked up in the working directory
	DefaultConfigFile = "stratsim.yaml"
	// DefaultOverrideFile is the optional local file merged over the config file
	DefaultOverrideFile = "stratsim.local.yaml"
	// DefaultEnvFile is the dotenv file loaded before environment overrides
	DefaultEnvFile = ".env"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger       *slog.Logger
	overrideFile string
	envFile      string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, overrideFile: DefaultOverrideFile, envFile: DefaultEnvFile}
}

// WithOverrideFile points the loader at another override file ("" disables it).
func (l *Loader) WithOverrideFile(path string) *Loader {
	l.overrideFile = path
	return l
}

// WithEnvFile points the loader at another dotenv file ("" disables it).
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. YAML file at path (DefaultConfigFile when path is empty and it exists)
// 3. Override file merged over it, when present
// 4. Dotenv file (never overrides variables already set)
// 5. STRATSIM_* environment variables
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	fileConfig, err := LoadFromFile(path)
	switch {
	case err == nil:
		l.logger.Debug("Loaded config file", slog.String("path", path))
		config = fileConfig
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, err
	default:
		l.logger.Debug("No config file found", slog.String("path", path))
	}

	if l.overrideFile != "" {
		override, err := LoadOverride(l.overrideFile)
		switch {
		case err == nil:
			l.logger.Debug("Merged override file", slog.String("path", l.overrideFile))
			config.Merge(override)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err == nil {
			l.logger.Debug("Loaded env file", slog.String("path", l.envFile))
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load env file", slog.String("path", l.envFile), slog.String("error", err.Error()))
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Environment variables read by ApplyEnv:
//
//	STRATSIM_STORAGE_DRIVER   memory|sqlite|postgres|blob
//	STRATSIM_SQLITE_PATH      sqlite database file
//	STRATSIM_POSTGRES_DSN     postgres connection string
//	STRATSIM_STATE_KEY        key saved state is stored under
//	STRATSIM_STORAGE_PREFIX   blob prefix for the blob storage driver
//	STRATSIM_AUTOSAVE         true|false
//	STRATSIM_CATALOG_PREFIX   blob prefix of the catalog files
//	STRATSIM_CATALOG_SEED     unsigned seed for link generation
//	STRATSIM_REPORTS_PREFIX   blob prefix of exported reports
//	STRATSIM_REPORTS_FORMAT   csv|json
//	STRATSIM_LOG_LEVEL        debug|info|warn|error
//	STRATSIM_LOG_FORMAT       text|json
//	STRATSIM_METRICS_DRIVER   none|prometheus|expvar
//	STRATSIM_BLOB_*           see blob.ConfigFromEnv

// ApplyEnv overlays STRATSIM_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	set := func(dst *string, name string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("STRATSIM_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = core.StorageDriver(strings.ToLower(strings.TrimSpace(v)))
	}
	set(&c.Storage.SQLitePath, "STRATSIM_SQLITE_PATH")
	set(&c.Storage.PostgresDSN, "STRATSIM_POSTGRES_DSN")
	set(&c.Storage.StateKey, "STRATSIM_STATE_KEY")
	set(&c.Storage.BlobPrefix, "STRATSIM_STORAGE_PREFIX")
	if v := os.Getenv("STRATSIM_AUTOSAVE"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STRATSIM_AUTOSAVE: %w", err)
		}
		c.Storage.Autosave = on
	}

	set(&c.Catalog.Prefix, "STRATSIM_CATALOG_PREFIX")
	if v := os.Getenv("STRATSIM_CATALOG_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("STRATSIM_CATALOG_SEED: %w", err)
		}
		c.Catalog.Seed = seed
	}

	set(&c.Reports.Prefix, "STRATSIM_REPORTS_PREFIX")
	if v := os.Getenv("STRATSIM_REPORTS_FORMAT"); v != "" {
		c.Reports.Format = report.Format(strings.ToLower(v))
	}

	set(&c.Log.Level, "STRATSIM_LOG_LEVEL")
	set(&c.Log.Format, "STRATSIM_LOG_FORMAT")
	if v := os.Getenv("STRATSIM_METRICS_DRIVER"); v != "" {
		c.Metrics.Driver = MetricsDriver(strings.ToLower(v))
	}

	c.Blob = blob.ConfigFromEnv(c.Blob)
	return nil
}

// NewLogger builds the structured logger described by c.Log.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level %q is not supported", raw)
	}
}
