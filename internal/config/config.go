// Package config provides configuration loading for the simulator.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stratsim/internal/blob"
	"stratsim/internal/core"
	"stratsim/internal/report"
)

// Config represents the complete simulator configuration
type Config struct {
	Storage core.StorageConfig `yaml:"storage"`
	Blob    blob.Config        `yaml:"blob"`
	Catalog CatalogConfig      `yaml:"catalog"`
	Reports ReportsConfig      `yaml:"reports"`
	Log     LogConfig          `yaml:"log"`
	Metrics MetricsConfig      `yaml:"metrics"`

	// autosaveSet marks an override that spells out storage.autosave, so
	// Merge can turn autosave off.
	autosaveSet bool
}

// CatalogConfig configures where the initial data set is read from
type CatalogConfig struct {
	// Prefix is the blob key prefix holding productos.json, clientes.json
	// and estrategias.json
	Prefix string `yaml:"prefix"`
	// Seed drives the random link generator (0 = seed from the clock)
	Seed uint64 `yaml:"seed"`
}

// ReportsConfig configures report export
type ReportsConfig struct {
	// Prefix is the blob key prefix reports are written under
	Prefix string `yaml:"prefix"`
	// Format is csv or json
	Format report.Format `yaml:"format"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
}

// MetricsDriver selects a metrics backend.
type MetricsDriver string

const (
	// MetricsNone disables operation metrics.
	MetricsNone MetricsDriver = "none"
	// MetricsPrometheus registers Prometheus collectors.
	MetricsPrometheus MetricsDriver = "prometheus"
	// MetricsExpvar publishes counters through expvar.
	MetricsExpvar MetricsDriver = "expvar"
)

// MetricsConfig configures operation metrics
type MetricsConfig struct {
	Driver    MetricsDriver `yaml:"driver"`
	Namespace string        `yaml:"namespace"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: core.StorageConfig{
			Driver:   core.StorageMemory,
			Autosave: true,
		},
		Blob: blob.Config{
			Driver: blob.DriverFilesystem,
			FSRoot: "./blobdata",
		},
		Catalog: CatalogConfig{
			Prefix: "catalog",
		},
		Reports: ReportsConfig{
			Prefix: "reports",
			Format: report.FormatCSV,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Driver:    MetricsNone,
			Namespace: "stratsim",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "", core.StorageMemory:
	case core.StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	case core.StorageBlob:
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "", blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("blob.driver %q is not supported", c.Blob.Driver)
	}
	switch c.Reports.Format {
	case report.FormatCSV, report.FormatJSON:
	default:
		return fmt.Errorf("reports.format must be csv or json")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	switch c.Metrics.Driver {
	case "", MetricsNone, MetricsPrometheus, MetricsExpvar:
	default:
		return fmt.Errorf("metrics.driver %q is not supported", c.Metrics.Driver)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadOverride reads a partial YAML file for Merge. Fields the file leaves out
// stay zero so they do not override the base configuration.
func LoadOverride(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read override file: %w", err)
	}

	override := &Config{}
	if err := yaml.Unmarshal(data, override); err != nil {
		return nil, fmt.Errorf("failed to parse override file: %w", err)
	}
	var explicit struct {
		Storage struct {
			Autosave *bool `yaml:"autosave"`
		} `yaml:"storage"`
	}
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return nil, fmt.Errorf("failed to parse override file: %w", err)
	}
	override.autosaveSet = explicit.Storage.Autosave != nil

	return override, nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Storage
	if other.Storage.Driver != "" {
		c.Storage.Driver = other.Storage.Driver
	}
	if other.Storage.SQLitePath != "" {
		c.Storage.SQLitePath = other.Storage.SQLitePath
	}
	if other.Storage.PostgresDSN != "" {
		c.Storage.PostgresDSN = other.Storage.PostgresDSN
	}
	if other.Storage.BlobPrefix != "" {
		c.Storage.BlobPrefix = other.Storage.BlobPrefix
	}
	if other.Storage.StateKey != "" {
		c.Storage.StateKey = other.Storage.StateKey
	}
	if other.autosaveSet || other.Storage.Autosave {
		c.Storage.Autosave = other.Storage.Autosave
	}

	// Blob
	if other.Blob.Driver != "" {
		c.Blob.Driver = other.Blob.Driver
	}
	if other.Blob.FSRoot != "" {
		c.Blob.FSRoot = other.Blob.FSRoot
	}
	if other.Blob.S3 != (blob.S3Config{}) {
		c.Blob.S3 = other.Blob.S3
	}

	// Catalog
	if other.Catalog.Prefix != "" {
		c.Catalog.Prefix = other.Catalog.Prefix
	}
	if other.Catalog.Seed != 0 {
		c.Catalog.Seed = other.Catalog.Seed
	}

	// Reports
	if other.Reports.Prefix != "" {
		c.Reports.Prefix = other.Reports.Prefix
	}
	if other.Reports.Format != "" {
		c.Reports.Format = other.Reports.Format
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	// Metrics
	if other.Metrics.Driver != "" {
		c.Metrics.Driver = other.Metrics.Driver
	}
	if other.Metrics.Namespace != "" {
		c.Metrics.Namespace = other.Metrics.Namespace
	}
}
