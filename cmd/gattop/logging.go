package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/gattop/pkg/config"
)

const verboseFlagName = "verbose"

// configureLogger creates a logger from cfg with the level taken from --log-level, then --verbose,
// falling back to the config file. Returns a configured logger or error if the log-level is invalid.
func configureLogger(cmd *cobra.Command, cfg *config.Config) (*logrus.Logger, error) {
	// Default to panic level (essentially silent for normal operations)
	logLevel := logrus.PanicLevel
	if cfg != nil && cmd.Flags().Changed("config") {
		logLevel = cfg.LogLevel
	}

	// --log-level takes precedence
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	if logLevelStr != "" {
		switch logLevelStr {
		case "debug":
			logLevel = logrus.DebugLevel
		case "info":
			logLevel = logrus.InfoLevel
		case "warn":
			logLevel = logrus.WarnLevel
		case "error":
			logLevel = logrus.ErrorLevel
		default:
			return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", logLevelStr)
		}
	} else if verbose, _ := cmd.Flags().GetBool(verboseFlagName); verbose {
		logLevel = logrus.DebugLevel
	}

	// Copy so the caller's config keeps the file level
	c := config.DefaultConfig()
	if cfg != nil {
		*c = *cfg
	}
	c.LogLevel = logLevel

	return c.NewLogger(), nil
}

// loadConfig reads --config when given, defaults otherwise. --output overrides the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.OutputFormat = output
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
