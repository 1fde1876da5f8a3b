package config_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojaehong/hr-mvp-app/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worktime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// chdir changes the working directory for the duration of the test (stand-in
// for testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "worktime.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Simulation.Workers)
	assert.True(t, cfg.Retention.Enabled)
	assert.Equal(t, 90*24*time.Hour, cfg.Retention.Window)
	assert.Empty(t, cfg.Policy.SettingsPath)
}

func TestLoad_FileThenEnv(t *testing.T) {
	// GIVEN: A config file and an env override for the port
	// WHEN: Loaded
	// THEN: File values apply and the env wins where both are set

	path := writeConfig(t, `
server:
  port: 9000
  cors:
    allow_origins: ["https://hr.example.com"]
db:
  path: ":memory:"
log:
  level: debug
  format: text
policy:
  preset: strict-audit
simulation:
  workers: 2
retention:
  window: 720h
`)
	t.Setenv("WORKTIME_SERVER_PORT", "9100")
	t.Setenv("WORKTIME_SIMULATION_WORKERS", "8")

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"https://hr.example.com"}, cfg.Server.CORS.AllowOrigins)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "strict-audit", cfg.Policy.Preset)
	assert.Equal(t, 8, cfg.Simulation.Workers)
	assert.Equal(t, 720*time.Hour, cfg.Retention.Window)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"log level", "log:\n  level: loud\n"},
		{"log format", "log:\n  format: xml\n"},
		{"workers", "simulation:\n  workers: 0\n"},
		{"retention", "retention:\n  window: 0s\n"},
		{"db path", "db:\n  path: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := config.NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "run_id", "r1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "worktime", entry["app"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := config.NewLogger(config.LogConfig{Level: "debug", Format: "text"}, &buf)

	logger.Debug("calc", "mode", "timecard")

	assert.Contains(t, buf.String(), "mode=timecard")
}
