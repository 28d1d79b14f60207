package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "LOG_LEVEL", "LOG_FORMAT", "GEMINI_BACKEND", "GEMINI_API_KEY", "API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\nlog:\n  level: warn\n"), 0o644))

	tests := []struct {
		name      string
		opts      Options
		wantPort  int
		wantLevel string
	}{
		{"file only", Options{ConfigPath: path}, 9000, "warn"},
		{"flags win over file", Options{ConfigPath: path, Port: 9100, LogLevel: "debug"}, 9100, "debug"},
		{"missing file uses defaults", Options{ConfigPath: filepath.Join(dir, "missing.yaml")}, 8080, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPort, cfg.Server.Port)
			assert.Equal(t, tt.wantLevel, cfg.Log.Level)
		})
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_BACKEND", "carrier-pigeon")

	_, err := LoadConfig(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestBootstrap_LogsToOutput(t *testing.T) {
	clearEnv(t)
	var out bytes.Buffer

	c, err := Bootstrap(Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
		LogLevel:   "debug",
		LogOutput:  &out,
	})
	require.NoError(t, err)
	defer c.Close()

	c.Logger.Debug("bootstrap check")
	assert.Contains(t, out.String(), "bootstrap check")
	assert.Equal(t, "debug", c.Config.Log.Level)
}
