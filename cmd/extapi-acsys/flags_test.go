package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags_Defaults(t *testing.T) {
	for _, key := range []string{"EXTAPI_CONFIG", "EXTAPI_LOG_LEVEL", "EXTAPI_LOG_FORMAT", "EXTAPI_DEBUG", "EXTAPI_SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.ConfigPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, validateFlags(cfg))
}

func TestParseFlags_EnvAndOverrides(t *testing.T) {
	t.Setenv("EXTAPI_LOG_FORMAT", "text")
	t.Setenv("EXTAPI_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := parseFlags([]string{"--debug", "--validate"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Validate)
}

func TestParseFlags_Unknown(t *testing.T) {
	_, err := parseFlags([]string{"--nope"})
	assert.Error(t, err)
}

func TestValidateFlags(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(existing, []byte(`{}`), 0600))

	valid := CLIConfig{LogLevel: "info", LogFormat: "json", ShutdownTimeout: time.Second}

	tests := []struct {
		name    string
		mutate  func(c *CLIConfig)
		wantErr bool
	}{
		{"valid", func(c *CLIConfig) {}, false},
		{"existing config", func(c *CLIConfig) { c.ConfigPath = existing }, false},
		{"missing config", func(c *CLIConfig) { c.ConfigPath = existing + ".missing" }, true},
		{"bad level", func(c *CLIConfig) { c.LogLevel = "trace" }, true},
		{"bad format", func(c *CLIConfig) { c.LogFormat = "xml" }, true},
		{"bad timeout", func(c *CLIConfig) { c.ShutdownTimeout = 0 }, true},
		{"version skips checks", func(c *CLIConfig) {
			c.ShowVersion = true
			c.LogLevel = "trace"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := validateFlags(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "component", "test")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, appName, entry["service"])
	assert.Equal(t, Version, entry["version"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestRun_ValidateOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"bind_address": "127.0.0.1:0"}}`), 0600))

	assert.NoError(t, run([]string{"--config", path, "--validate", "--log-level", "error"}))

	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"bind_address": "nowhere"}}`), 0600))
	assert.Error(t, run([]string{"--config", path, "--validate", "--log-level", "error"}))
}
