package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weather-dashboard/internal/account"
	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/cache"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/logging"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration (.env first, then the environment).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	backend, err := cache.OpenBackend(ctx, cfg.CacheBackend, cache.BackendOptions{
		Dir:        cfg.CacheDir,
		SQLitePath: cfg.CacheSQLitePath,
		RedisAddr:  cfg.CacheRedisAddr,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.CacheBackend).Msg("failed to open cache")
	}
	responseCache := cache.New(backend, cfg.CacheTTL, cache.WithLogger(logger))
	defer func() {
		if err := responseCache.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing cache")
		}
	}()

	sessions, err := session.NewFileStore(cfg.StateDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open session store")
	}

	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn().Msg("OPENWEATHER_API_KEY is not set; weather requests will fail")
	}
	openWeather := providers.NewOpenWeather(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)

	// Google geocoding replaces OpenWeather's when a key is configured.
	var geo dashboard.Geocoder
	if cfg.GoogleGeocoderAPIKey != "" {
		geo = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey)
	}

	service, err := dashboard.NewService(dashboard.Dependencies{
		Cache:          responseCache,
		Weather:        openWeather,
		Geocoder:       geo,
		Accounts:       account.NewClient(httpClient, cfg.AccountBaseURL),
		Sessions:       sessions,
		Logger:         logger,
		SearchDebounce: cfg.SearchDebounce,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build dashboard service")
	}
	defer service.Close()

	// Scheduler that keeps configured forecasts warm in the cache.
	sched := scheduler.New(cfg.WarmLocations, cfg.WarmInterval, service, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(httpapi.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
