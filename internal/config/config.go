// Package config provides configuration management.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"finops-forecast/internal/errors"
	"finops-forecast/internal/logging"
)

// Environment variables that override file configuration
const (
	EnvLogLevel       = "FINOPS_LOG_LEVEL"
	EnvLogFormat      = "FINOPS_LOG_FORMAT"
	EnvOutputFormat   = "FINOPS_OUTPUT_FORMAT"
	EnvTablesFile     = "FINOPS_TABLES_FILE"
	EnvForecastMonths = "FINOPS_FORECAST_MONTHS"
	EnvCashDays       = "FINOPS_CASH_DAYS"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `yaml:"version"`

	// Logging contains logging configuration
	Logging logging.Config `yaml:"logging"`

	// Output contains output configuration
	Output OutputConfig `yaml:"output"`

	// Forecast contains horizon defaults used when a record file omits them
	Forecast ForecastConfig `yaml:"forecast"`

	// TablesFile is an optional HCL file overriding the built-in lookup tables
	TablesFile string `yaml:"tables_file,omitempty"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `yaml:"default_format"`

	// ShowAssumptions lists applied defaults under the report
	ShowAssumptions bool `yaml:"show_assumptions"`
}

// ForecastConfig contains forecasting defaults
type ForecastConfig struct {
	Months           int    `yaml:"months"`
	CashDays         int    `yaml:"cash_days"`
	ApplySeasonality bool   `yaml:"apply_seasonality"`
	Industry         string `yaml:"industry"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Logging: logging.DefaultConfig(),
		Output: OutputConfig{
			DefaultFormat:   "cli",
			ShowAssumptions: true,
		},
		Forecast: ForecastConfig{
			Months:           12,
			CashDays:         90,
			ApplySeasonality: false,
			Industry:         "generic",
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Config("reading config file", err).WithContext("path", path)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Config("decoding config file", err).WithContext("path", path)
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv loads envFile (if present) into the process environment and
// applies FINOPS_* overrides on top of c
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return errors.Config("loading env file", err).WithContext("path", envFile)
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvOutputFormat); v != "" {
		c.Output.DefaultFormat = v
	}
	if v := os.Getenv(EnvTablesFile); v != "" {
		c.TablesFile = v
	}
	if v := os.Getenv(EnvForecastMonths); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Config(EnvForecastMonths+" must be an integer", err)
		}
		c.Forecast.Months = n
	}
	if v := os.Getenv(EnvCashDays); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Config(EnvCashDays+" must be an integer", err)
		}
		c.Forecast.CashDays = n
	}
	return nil
}

// Validate checks the configuration for values the engine would reject
func (c *Config) Validate() error {
	if c.Forecast.Months < 0 {
		return errors.Newf(errors.TypeConfig, "forecast.months must be >= 0, got %d", c.Forecast.Months)
	}
	if c.Forecast.CashDays < 0 {
		return errors.Newf(errors.TypeConfig, "forecast.cash_days must be >= 0, got %d", c.Forecast.CashDays)
	}
	switch c.Output.DefaultFormat {
	case "cli", "json":
	default:
		return errors.Newf(errors.TypeConfig, "unknown output format %q", c.Output.DefaultFormat)
	}
	return nil
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
