package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT", "OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL",
	"GOOGLE_GEOCODER_API_KEY", "ACCOUNT_BASE_URL", "HTTP_TIMEOUT", "CACHE_TTL", "CACHE_BACKEND",
	"CACHE_DIR", "CACHE_SQLITE_PATH", "CACHE_REDIS_ADDR", "STATE_DIR", "SEARCH_DEBOUNCE",
	"WARM_INTERVAL", "WARM_LATITUDES", "WARM_LONGITUDES",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "https://api.openweathermap.org", cfg.OpenWeatherBaseURL)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "file", cfg.CacheBackend)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 15*time.Minute, cfg.WarmInterval)
	assert.Empty(t, cfg.WarmLocations)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("CACHE_BACKEND", "sqlite")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("WARM_LATITUDES", "48.85,51.5")
	t.Setenv("WARM_LONGITUDES", "2.35,-0.12")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "ow-key", cfg.OpenWeatherAPIKey)
	assert.Equal(t, "sqlite", cfg.CacheBackend)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []Coordinate{{Lat: 48.85, Lon: 2.35}, {Lat: 51.5, Lon: -0.12}}, cfg.WarmLocations)
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"CACHE_BACKEND": "memcached"}},
		{"redis without address", map[string]string{"CACHE_BACKEND": "redis"}},
		{"bad duration", map[string]string{"CACHE_TTL": "soon"}},
		{"unpaired coordinates", map[string]string{"WARM_LATITUDES": "1,2", "WARM_LONGITUDES": "3"}},
		{"latitude out of range", map[string]string{"WARM_LATITUDES": "95", "WARM_LONGITUDES": "3"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=7070\nCACHE_BACKEND=memory\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "memory", cfg.CacheBackend)
}
