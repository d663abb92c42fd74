package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/location/google"
	"github.com/i474232898/weather-dashboard/internal/location/nominatim"
	"github.com/i474232898/weather-dashboard/internal/logging"
	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration (.env first, then the environment).
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger, logCloser := logging.New(logging.Options{
		Service: "weather-dashboard",
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("weather dashboard stopped")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	m := metrics.New()

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	breaker := upstream.BreakerConfig{
		MaxRequests:         cfg.Breaker.MaxRequests,
		Interval:            cfg.Breaker.Interval,
		Timeout:             cfg.Breaker.Timeout,
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
	}

	var geocoder location.Geocoder
	if cfg.GoogleAPIKey != "" {
		geocoder = google.NewClient(cfg.GoogleAPIKey)
		logger.Info().Str("geocoder", "google").Msg("geocoder selected")
	} else {
		geocoder = nominatim.NewClient(httpClient, nominatim.Config{
			BaseURL:           cfg.Nominatim.BaseURL,
			UserAgent:         cfg.Nominatim.UserAgent,
			RequestsPerSecond: cfg.Nominatim.RequestsPerSecond,
			Breaker:           breaker,
			Observer:          m,
		})
		logger.Info().Str("geocoder", "nominatim").Msg("geocoder selected")
	}
	resolver := location.NewResolver(geocoder, logger)

	forecast := providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoConfig{
		BaseURL:      cfg.OpenMeteo.BaseURL,
		ForecastDays: cfg.OpenMeteo.ForecastDays,
		Breaker:      breaker,
		Observer:     m,
	})
	radar := providers.NewRainViewerProvider(httpClient, cfg.RadarManifest, m)

	backend, err := prefs.Open(ctx, prefs.Options{
		Kind:          cfg.Prefs.Backend,
		SQLitePath:    cfg.Prefs.SQLitePath,
		RedisAddr:     cfg.Prefs.RedisAddr,
		RedisPassword: cfg.Prefs.RedisPassword,
		RedisDB:       cfg.Prefs.RedisDB,
	}, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	store := prefs.NewStore(backend, cfg.Prefs.Scope, logger)

	ctrl := dashboard.New(resolver, forecast, store, logger, dashboard.Options{
		RefreshInterval: cfg.Refresh.Interval,
		Observer:        m,
	})

	fallback := location.Query{
		Latitude:    cfg.DefaultLocation.Latitude,
		Longitude:   cfg.DefaultLocation.Longitude,
		DisplayName: cfg.DefaultLocation.Name,
	}
	if _, err := ctrl.Restore(ctx, fallback); err != nil {
		logger.Warn().Err(err).Msg("initial load failed")
	}

	// Scheduler that refreshes the shown forecast once it goes stale.
	sched := scheduler.New(ctrl, cfg.Refresh.Tick, cfg.Refresh.TickTimeout, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.AppConfig{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, logger)

	deps := httpapi.Deps{Dashboard: ctrl, Radar: radar}
	if cfg.MetricsEnabled {
		deps.Metrics = m.Handler()
	}
	httpapi.RegisterRoutes(app, deps)

	// Start server with graceful shutdown
	listenErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("http server listening")
		listenErr <- app.Listen(cfg.Server.Address)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
	logger.Info().Msg("shut down")
	return nil
}
