// Package config loads the tp3s configuration file.
package config

import (
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/example/tp3s/bnp/domain"
)

// Config holds all configuration for the tp3s process.
type Config struct {
	// Solver holds the branch-and-price parameters.
	Solver domain.SolverConfig `yaml:"solver"`

	// Storage configures the run history database.
	Storage StorageConfig `yaml:"storage"`

	// Server configures the gRPC and metrics listeners.
	Server ServerConfig `yaml:"server"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`
}

// StorageConfig configures the run history database.
type StorageConfig struct {
	// Path is the sqlite file. Empty disables run history.
	Path string `yaml:"path"`
}

// ServerConfig configures network listeners.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level"`

	// Development selects zap's console development encoder.
	Development bool `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Solver: domain.DefaultConfig(),
		Server: ServerConfig{
			Addr: ":50051",
		},
		Log: LogConfig{
			Level:       "info",
			Development: true,
		},
	}
}

// Load reads a YAML config file. Fields missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if c.Server.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			return fmt.Errorf("%w: server addr %q: %v", domain.ErrInvalidConfig, c.Server.Addr, err)
		}
	}
	if c.Server.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.Server.MetricsAddr); err != nil {
			return fmt.Errorf("%w: metrics addr %q: %v", domain.ErrInvalidConfig, c.Server.MetricsAddr, err)
		}
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", domain.ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// Logger builds the process logger described by the log section.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", domain.ErrInvalidConfig, c.Log.Level)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
