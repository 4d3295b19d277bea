//go:build test

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().Bool("verbose", false, "")
	cmd.Flags().String("config", "", "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestConfigureLogger(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		level logrus.Level
	}{
		{name: "silent by default", args: nil, level: logrus.PanicLevel},
		{name: "debug", args: []string{"--log-level", "debug"}, level: logrus.DebugLevel},
		{name: "info", args: []string{"--log-level", "info"}, level: logrus.InfoLevel},
		{name: "warn", args: []string{"--log-level", "warn"}, level: logrus.WarnLevel},
		{name: "error", args: []string{"--log-level", "error"}, level: logrus.ErrorLevel},
		{name: "verbose", args: []string{"--verbose"}, level: logrus.DebugLevel},
		{name: "log-level wins over verbose", args: []string{"--verbose", "--log-level", "warn"}, level: logrus.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newFlagCommand(t, tt.args...)
			cfg, err := loadConfig(cmd)
			require.NoError(t, err)

			logger, err := configureLogger(cmd, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.level, logger.GetLevel())
		})
	}
}

func TestConfigureLogger_UsesConfigFormatter(t *testing.T) {
	cmd := newFlagCommand(t, "--log-level", "debug")
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	logger, err := configureLogger(cmd, cfg)
	require.NoError(t, err)

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok, "logger MUST use the config text formatter")
	assert.True(t, formatter.FullTimestamp)
	assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel, "flag override MUST NOT mutate the loaded config")
}

func TestConfigureLogger_Invalid(t *testing.T) {
	cmd := newFlagCommand(t, "--log-level", "loud")

	_, err := configureLogger(cmd, nil)

	assert.ErrorContains(t, err, "invalid log level: loud")
}

func TestConfigureLogger_FromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gattop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))

	t.Run("file level applies", func(t *testing.T) {
		cmd := newFlagCommand(t, "--config", path)
		cfg, err := loadConfig(cmd)
		require.NoError(t, err)

		logger, err := configureLogger(cmd, cfg)
		require.NoError(t, err)
		assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	})

	t.Run("flag overrides file", func(t *testing.T) {
		cmd := newFlagCommand(t, "--config", path, "--log-level", "debug")
		cfg, err := loadConfig(cmd)
		require.NoError(t, err)

		logger, err := configureLogger(cmd, cfg)
		require.NoError(t, err)
		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	})
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cmd := newFlagCommand(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := loadConfig(cmd)

	assert.ErrorContains(t, err, "failed to read config")
}
