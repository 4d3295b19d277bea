package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config holds application configuration
type Config struct {
	LogLevel             logrus.Level  `yaml:"-"`
	LogLevelName         string        `yaml:"log_level" default:"info"`
	OperationTimeout     time.Duration `yaml:"operation_timeout" default:"30s"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout" default:"30s"`
	ChunkSize            int           `yaml:"chunk_size"` // 0 = derive from MTU
	WriteWithoutResponse bool          `yaml:"write_without_response"`
	OutputFormat         string        `yaml:"output_format" default:"text"` // text, json
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.LogLevel = logrus.InfoLevel
	return cfg
}

// Load reads a YAML configuration file on top of the defaults.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and resolves LogLevel from LogLevelName.
func (c *Config) Validate() error {
	level, err := logrus.ParseLevel(c.LogLevelName)
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	c.LogLevel = level

	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation_timeout must be positive, got %v", c.OperationTimeout)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive, got %v", c.ConnectTimeout)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative, got %d", c.ChunkSize)
	}
	if c.OutputFormat != OutputText && c.OutputFormat != OutputJSON {
		return fmt.Errorf("output_format must be %q or %q, got %q", OutputText, OutputJSON, c.OutputFormat)
	}
	return nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
