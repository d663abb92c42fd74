package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/rs/zerolog"
)

const (
	DefaultScope = "weather-dashboard"

	unitKey         = "unit"
	lastLocationKey = "last-location"
)

var errInvalidUnit = errors.New("invalid unit preference")

// Store exposes the unit preference and the last viewed location on top of
// a Backend. Reads never fail: absence, backend errors and corrupted values
// all read as "no value".
type Store struct {
	backend Backend
	scope   string
	logger  zerolog.Logger
}

func NewStore(backend Backend, scope string, logger zerolog.Logger) *Store {
	if scope == "" {
		scope = DefaultScope
	}
	return &Store{backend: backend, scope: scope, logger: logger}
}

func (s *Store) key(name string) string {
	return s.scope + ":" + name
}

func (s *Store) read(ctx context.Context, name string) (string, bool) {
	v, found, err := s.backend.Get(ctx, s.key(name))
	if err != nil {
		s.logger.Debug().Str("key", s.key(name)).Err(err).Msg("preference read failed")
		return "", false
	}
	return v, found
}

// Unit returns the stored explicit unit, if any.
func (s *Store) Unit(ctx context.Context) (units.Unit, bool) {
	raw, ok := s.read(ctx, unitKey)
	if !ok {
		return "", false
	}
	u, ok := units.Parse(raw)
	if !ok {
		s.logger.Debug().Str("value", raw).Msg("ignoring corrupted unit preference")
		return "", false
	}
	return u, true
}

func (s *Store) SetUnit(ctx context.Context, u units.Unit) error {
	if !u.Valid() {
		return fmt.Errorf("%w: %q", errInvalidUnit, u)
	}
	return s.backend.Set(ctx, s.key(unitKey), string(u))
}

func (s *Store) ClearUnit(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key(unitKey))
}

// LastLocation returns the last successfully shown location, if any.
func (s *Store) LastLocation(ctx context.Context) (location.Query, bool) {
	raw, ok := s.read(ctx, lastLocationKey)
	if !ok {
		return location.Query{}, false
	}

	var q location.Query
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring corrupted last location")
		return location.Query{}, false
	}
	if err := q.Validate(); err != nil {
		s.logger.Debug().Err(err).Msg("ignoring out-of-range last location")
		return location.Query{}, false
	}
	return q, true
}

func (s *Store) SetLastLocation(ctx context.Context, q location.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.key(lastLocationKey), string(raw))
}
