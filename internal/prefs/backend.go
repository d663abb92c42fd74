package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Backend is a string key-value store. Get reports found=false with a nil
// error when the key is absent.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

var ErrUnknownBackend = errors.New("unknown preference backend")

// Options selects and configures a Backend.
type Options struct {
	Kind          string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open builds the backend named by opts.Kind.
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (Backend, error) {
	switch opts.Kind {
	case "", KindMemory:
		logger.Info().Str("backend", KindMemory).Msg("preferences are kept in memory")
		return NewMemoryBackend(), nil
	case KindSQLite:
		b, err := NewSQLiteBackend(ctx, opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite preferences: %w", err)
		}
		logger.Info().Str("backend", KindSQLite).Str("path", opts.SQLitePath).Msg("preferences backend ready")
		return b, nil
	case KindRedis:
		b, err := NewRedisBackend(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("open redis preferences: %w", err)
		}
		logger.Info().Str("backend", KindRedis).Str("addr", opts.RedisAddr).Msg("preferences backend ready")
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Kind)
	}
}
