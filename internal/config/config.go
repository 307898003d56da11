// Package config loads application configuration from environment
// variables (ACCRETION_ prefix) and an optional YAML file. Environment
// values win over file values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix is the prefix for all environment variables.
const envPrefix = "ACCRETION"

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Dataset DatasetConfig `yaml:"dataset" envconfig:"DATASET"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration.
//
// Defaults live in Default(), not in envconfig tags: a `default:` tag
// is applied whenever the env var is unset, which would clobber values
// already read from the config file.
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
	Tracing  bool   `yaml:"tracing" envconfig:"TRACING"`
}

// DatasetConfig bounds dataset ingestion and selects the spin
// classification variant (0.3/0.7 by default; a 0.33/0.66 variant
// exists in older deployments).
type DatasetConfig struct {
	MaxUploadBytes int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	SpinLow        float64 `yaml:"spin_low" envconfig:"SPIN_LOW"`
	SpinHigh       float64 `yaml:"spin_high" envconfig:"SPIN_HIGH"`
}

// PathsConfig contains file system paths.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Default returns the built-in defaults without consulting a config
// file or the environment. LoadFrom layers the file and then the
// environment on top of this baseline.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/accretion.log",
		},
		Dataset: DatasetConfig{
			MaxUploadBytes: 16 << 20,
			SpinLow:        0.3,
			SpinHigh:       0.7,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "data/reports",
			LogsDir:    "logs",
		},
	}
}

// Load builds the configuration: file first (when present), then
// environment overrides, then validation.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom loads configuration using the given YAML file path. A
// missing file is not an error; environment variables and defaults
// still apply. Precedence: environment over file over defaults.
func LoadFrom(configFile string) (*Config, error) {
	cfg := *Default()

	if configFile != "" {
		if data, err := os.ReadFile(configFile); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configFile, err)
			}
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %s", c.Logging.Output)
	}

	if c.Dataset.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %d", c.Dataset.MaxUploadBytes)
	}
	if c.Dataset.SpinLow <= 0 || c.Dataset.SpinHigh <= c.Dataset.SpinLow {
		return fmt.Errorf("invalid spin thresholds: low=%.3f high=%.3f", c.Dataset.SpinLow, c.Dataset.SpinHigh)
	}

	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid rate limit: rps=%.1f burst=%d", c.Server.RateLimit.RPS, c.Server.RateLimit.Burst)
		}
	}
	return nil
}
