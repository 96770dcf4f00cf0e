package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Coordinate is a location the scheduler keeps warm in the cache.
type Coordinate struct {
	Lat float64
	Lon float64
}

type AppConfig struct {
	Port      string `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json text"`

	OpenWeatherAPIKey    string `env:"OPENWEATHER_API_KEY"`
	OpenWeatherBaseURL   string `env:"OPENWEATHER_BASE_URL" envDefault:"https://api.openweathermap.org" validate:"url"`
	GoogleGeocoderAPIKey string `env:"GOOGLE_GEOCODER_API_KEY"`
	AccountBaseURL       string `env:"ACCOUNT_BASE_URL" envDefault:"http://localhost:8000" validate:"url"`

	// HTTPTimeout bounds every outbound call.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"10m" validate:"gt=0"`
	CacheBackend    string        `env:"CACHE_BACKEND" envDefault:"file" validate:"oneof=memory file sqlite redis"`
	CacheDir        string        `env:"CACHE_DIR" envDefault:".weather-dashboard/cache"`
	CacheSQLitePath string        `env:"CACHE_SQLITE_PATH" envDefault:".weather-dashboard/cache.db"`
	CacheRedisAddr  string        `env:"CACHE_REDIS_ADDR" validate:"required_if=CacheBackend redis"`

	// StateDir holds the persisted session and preferences.
	StateDir       string        `env:"STATE_DIR" envDefault:".weather-dashboard"`
	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"300ms" validate:"gte=0"`

	// Cache warming. Latitudes and longitudes are paired by position.
	WarmInterval   time.Duration `env:"WARM_INTERVAL" envDefault:"15m" validate:"gt=0"`
	WarmLatitudes  []float64     `env:"WARM_LATITUDES" envSeparator:"," validate:"dive,gte=-90,lte=90"`
	WarmLongitudes []float64     `env:"WARM_LONGITUDES" envSeparator:"," validate:"dive,gte=-180,lte=180"`
	WarmLocations  []Coordinate  `env:"-"`
}

// Load reads configuration from a .env file, if present, and the
// environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses and validates the process environment.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	locs, err := pairCoordinates(cfg.WarmLatitudes, cfg.WarmLongitudes)
	if err != nil {
		return nil, err
	}
	cfg.WarmLocations = locs
	return cfg, nil
}

func pairCoordinates(lats, lons []float64) ([]Coordinate, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("number of WARM_LATITUDES (%d) and WARM_LONGITUDES (%d) must be the same", len(lats), len(lons))
	}
	locs := make([]Coordinate, 0, len(lats))
	for i := range lats {
		locs = append(locs, Coordinate{Lat: lats[i], Lon: lons[i]})
	}
	return locs, nil
}
