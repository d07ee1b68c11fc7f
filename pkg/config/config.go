// Package config loads the CaseFlow host configuration from a YAML file.
// Every field has a working default so a config file is optional.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caseflow/caseflow/pkg/telemetry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level host configuration.
type Config struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Data configures dataset loading.
	Data DataConfig `yaml:"data"`

	// History configures persistent run history.
	History HistoryConfig `yaml:"history"`
}

// LoggingConfig mirrors telemetry.LoggingConfig in file form.
type LoggingConfig struct {
	Level        string `yaml:"level" validate:"oneof=trace debug info warn error fatal"`
	Format       string `yaml:"format" validate:"oneof=console json"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// MetricsConfig mirrors telemetry.MetricsConfig in file form.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address" validate:"required_if=Enabled true"`
	Path          string `yaml:"path"`
}

// DataConfig configures dataset loading.
type DataConfig struct {
	// Dir is the dataset directory imported at startup. Empty disables
	// file-based datasets.
	Dir string `yaml:"dir"`

	// Watch hot reloads datasets when files in Dir change.
	Watch bool `yaml:"watch"`
}

// HistoryConfig configures persistent run history.
type HistoryConfig struct {
	// Path is the SQLite database path. Empty disables history.
	Path string `yaml:"path"`

	// ConnMaxLifetime bounds pooled connection reuse.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9090",
			Path:          "/metrics",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// TelemetryConfig converts the file form to the telemetry package's
// configuration.
func (c *Config) TelemetryConfig() telemetry.Config {
	out := *telemetry.DefaultConfig()
	out.Logging = telemetry.LoggingConfig{
		Level:        c.Logging.Level,
		Format:       c.Logging.Format,
		Output:       c.Logging.Output,
		EnableCaller: c.Logging.EnableCaller,
	}
	out.Metrics.Enabled = c.Metrics.Enabled
	if c.Metrics.ListenAddress != "" {
		out.Metrics.ListenAddress = c.Metrics.ListenAddress
	}
	if c.Metrics.Path != "" {
		out.Metrics.Path = c.Metrics.Path
	}
	return out
}
