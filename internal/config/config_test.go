package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.NotEmpty(t, cfg.DB.Path)
	assert.Equal(t, 3, cfg.View.Months)
	assert.Equal(t, 2, cfg.View.ColumnWidth)
	assert.Equal(t, 8, cfg.Cascade.MaxConcurrency)
	assert.False(t, cfg.Holidays.Enabled)
	assert.Equal(t, "Zone B", cfg.Holidays.Zone)
	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "lotplan.yaml", `
db:
  path: /tmp/chantier.db
view:
  months: 6
holidays:
  enabled: true
  timeout: 2s
log:
  level: debug
  use_case_events: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/chantier.db", cfg.DB.Path)
	assert.Equal(t, 6, cfg.View.Months)
	assert.Equal(t, 2, cfg.View.ColumnWidth, "unset keys keep their default")
	assert.True(t, cfg.Holidays.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Holidays.Timeout)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.True(t, cfg.Log.UseCaseEvents)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "lotplan.json", `{"db": {"driver": "postgres", "url": "postgres://localhost/lotplan"}, "api": {"addr": ":3000"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://localhost/lotplan", cfg.DB.URL)
	assert.Equal(t, ":3000", cfg.API.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "lotplan.yaml", "view:\n  months: 6\n")
	t.Setenv("LOTPLAN_VIEW__MONTHS", "2")
	t.Setenv("LOTPLAN_VIEW__COLUMN_WIDTH", "3")
	t.Setenv("LOTPLAN_CASCADE__MAX_CONCURRENCY", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.View.Months)
	assert.Equal(t, 3, cfg.View.ColumnWidth)
	assert.Equal(t, 3, cfg.Cascade.MaxConcurrency)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "unsupported format", file: "lotplan.toml", body: "x = 1"},
		{name: "unknown driver", file: "c.yaml", body: "db:\n  driver: mysql\n"},
		{name: "postgres without url", file: "c.yaml", body: "db:\n  driver: postgres\n"},
		{name: "months out of range", file: "c.yaml", body: "view:\n  months: 40\n"},
		{name: "bad level", file: "c.yaml", body: "log:\n  level: loud\n"},
		{name: "holidays without url", file: "c.yaml", body: "holidays:\n  enabled: true\n  holidays_url: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
