package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Address         string        `envconfig:"SERVER_ADDRESS" default:"127.0.0.1:8080" validate:"required,hostname_port"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s" validate:"gt=0"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

type Nominatim struct {
	BaseURL           string  `envconfig:"NOMINATIM_BASE_URL" default:"https://nominatim.openstreetmap.org" validate:"required,url"`
	UserAgent         string  `envconfig:"NOMINATIM_USER_AGENT" default:"weather-dashboard/1.0" validate:"required"`
	RequestsPerSecond float64 `envconfig:"NOMINATIM_RPS" default:"1" validate:"gt=0"`
}

type OpenMeteo struct {
	BaseURL      string `envconfig:"OPENMETEO_BASE_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"required,url"`
	ForecastDays int    `envconfig:"OPENMETEO_FORECAST_DAYS" default:"10" validate:"min=2,max=16"`
}

type Breaker struct {
	ConsecutiveFailures uint32        `envconfig:"BREAKER_CONSECUTIVE_FAILURES" default:"5" validate:"gt=0"`
	MaxRequests         uint32        `envconfig:"BREAKER_MAX_REQUESTS" default:"1"`
	Interval            time.Duration `envconfig:"BREAKER_INTERVAL" default:"1m" validate:"gte=0"`
	Timeout             time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s" validate:"gt=0"`
}

type Prefs struct {
	Backend       string `envconfig:"PREFS_BACKEND" default:"memory" validate:"oneof=memory sqlite redis"`
	Scope         string `envconfig:"PREFS_SCOPE" default:"weather-dashboard" validate:"required"`
	SQLitePath    string `envconfig:"PREFS_SQLITE_PATH" default:"weather-dashboard.db" validate:"required_if=Backend sqlite"`
	RedisAddr     string `envconfig:"PREFS_REDIS_ADDR" default:"localhost:6379" validate:"required_if=Backend redis"`
	RedisPassword string `envconfig:"PREFS_REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"PREFS_REDIS_DB" default:"0" validate:"gte=0"`
}

type Refresh struct {
	Interval    time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m" validate:"gt=0"`
	Tick        time.Duration `envconfig:"REFRESH_TICK" default:"60s" validate:"gte=1s"`
	TickTimeout time.Duration `envconfig:"REFRESH_TICK_TIMEOUT" default:"30s" validate:"gt=0"`
}

// DefaultLocation is shown on first start when nothing was stored.
type DefaultLocation struct {
	Latitude  float64 `envconfig:"DEFAULT_LATITUDE" default:"51.5074" validate:"latitude"`
	Longitude float64 `envconfig:"DEFAULT_LONGITUDE" default:"-0.1278" validate:"longitude"`
	Name      string  `envconfig:"DEFAULT_LOCATION_NAME" default:"London, UK" validate:"required"`
}

type Log struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE"`
}

// Config is the process configuration, read from the environment.
type Config struct {
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	GoogleAPIKey   string        `envconfig:"GOOGLE_GEOCODER_API_KEY"`
	RadarManifest  string        `envconfig:"RAINVIEWER_MANIFEST_URL" default:"https://api.rainviewer.com/public/weather-maps.json" validate:"required,url"`
	MetricsEnabled bool          `envconfig:"METRICS_ENABLED" default:"true"`

	Server          Server
	Nominatim       Nominatim
	OpenMeteo       OpenMeteo
	Breaker         Breaker
	Prefs           Prefs
	Refresh         Refresh
	DefaultLocation DefaultLocation
	Log             Log
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects impossible values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Refresh.Tick > c.Refresh.Interval {
		return fmt.Errorf("invalid configuration: REFRESH_TICK (%s) exceeds REFRESH_INTERVAL (%s)", c.Refresh.Tick, c.Refresh.Interval)
	}
	return nil
}
