package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, time.Minute, cfg.Refresh.Tick)
	assert.Equal(t, 10, cfg.OpenMeteo.ForecastDays)
	assert.Equal(t, "memory", cfg.Prefs.Backend)
	assert.Equal(t, 51.5074, cfg.DefaultLocation.Latitude)
	assert.Equal(t, -0.1278, cfg.DefaultLocation.Longitude)
	assert.Equal(t, "London, UK", cfg.DefaultLocation.Name)
	assert.Equal(t, 1.0, cfg.Nominatim.RequestsPerSecond)
	assert.Empty(t, cfg.GoogleAPIKey)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PREFS_BACKEND", "sqlite")
	t.Setenv("PREFS_SQLITE_PATH", "/tmp/prefs.db")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("DEFAULT_LATITUDE", "30.2672")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Prefs.Backend)
	assert.Equal(t, "/tmp/prefs.db", cfg.Prefs.SQLitePath)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, 30.2672, cfg.DefaultLocation.Latitude)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENMETEO_FORECAST_DAYS=7\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("OPENMETEO_FORECAST_DAYS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.OpenMeteo.ForecastDays)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"backend":       {"PREFS_BACKEND", "etcd"},
		"latitude":      {"DEFAULT_LATITUDE", "91"},
		"forecast days": {"OPENMETEO_FORECAST_DAYS", "1"},
		"tick":          {"REFRESH_TICK", "20m"},
		"duration":      {"HTTP_TIMEOUT", "soon"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
