// Package dashboard owns the application state: the shown location, the
// active unit and the latest snapshot. Every operation goes through Controller.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/i474232898/weather-dashboard/internal/clock"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/rs/zerolog"
)

var (
	ErrSuperseded  = errors.New("superseded by a newer request")
	ErrNoLocation  = errors.New("no location loaded")
	ErrInvalidUnit = errors.New("invalid unit")
)

// Resolver turns user input into a location query.
type Resolver interface {
	Forward(ctx context.Context, text string) (location.Query, error)
	Reverse(ctx context.Context, lat, lon float64) (location.Query, error)
}

// Preferences persists the explicit unit and the last shown location.
type Preferences interface {
	Unit(ctx context.Context) (units.Unit, bool)
	SetUnit(ctx context.Context, u units.Unit) error
	ClearUnit(ctx context.Context) error
	LastLocation(ctx context.Context) (location.Query, bool)
	SetLastLocation(ctx context.Context, q location.Query) error
}

// Observer receives operation outcomes.
type Observer interface {
	ObserveOperation(operation, outcome string)
	ObserveRefresh(outcome string)
}

// State is what the dashboard currently shows. Seq is the sequence number of
// the foreground operation that produced it.
type State struct {
	Query     *location.Query
	Unit      units.Unit
	Snapshot  *weather.Snapshot
	LastFetch time.Time
	Seq       uint64
}

// TickOutcome reports what a background tick did.
type TickOutcome string

const (
	TickIdle      TickOutcome = "idle"
	TickFresh     TickOutcome = "fresh"
	TickRefreshed TickOutcome = "refreshed"
	TickFailed    TickOutcome = "failed"
	TickDropped   TickOutcome = "dropped"
)

type Options struct {
	RefreshInterval time.Duration
	Observer        Observer
	Now             func() time.Time
}

// Controller serializes state changes. Foreground operations each take a
// new sequence number and cancel the one in flight; only the latest may
// commit.
type Controller struct {
	resolver Resolver
	fetcher  weather.Fetcher
	prefs    Preferences
	tracker  clock.Tracker
	observer Observer
	logger   zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc
}

func New(resolver Resolver, fetcher weather.Fetcher, prefs Preferences, logger zerolog.Logger, opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		resolver: resolver,
		fetcher:  fetcher,
		prefs:    prefs,
		tracker:  clock.Tracker{Interval: opts.RefreshInterval},
		observer: opts.Observer,
		logger:   logger,
		now:      now,
	}
}

type task struct {
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
	op     string
	logger zerolog.Logger
}

func (c *Controller) begin(ctx context.Context, op string) *task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	tctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	return &task{
		ctx:    tctx,
		cancel: cancel,
		seq:    c.seq,
		op:     op,
		logger: c.logger.With().Str("task", uuid.NewString()).Str("op", op).Uint64("seq", c.seq).Logger(),
	}
}

func (c *Controller) isLatest(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq == seq
}

func (c *Controller) finish(t *task, err error) {
	t.cancel()
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrSuperseded):
		outcome = "superseded"
	default:
		outcome = "error"
	}
	if c.observer != nil {
		c.observer.ObserveOperation(t.op, outcome)
	}
}

// Search resolves free text or a US postal code and shows its forecast.
// explicitUnit is an optional unit token for this request.
func (c *Controller) Search(ctx context.Context, text, explicitUnit string) (view View, err error) {
	t := c.begin(ctx, "search")
	defer func() { c.finish(t, err) }()

	q, err := c.resolver.Forward(t.ctx, text)
	if err != nil {
		return View{}, c.failed(t, err)
	}
	return c.load(t, q, explicitUnit)
}

// LookupCoordinates shows the forecast for a coordinate pair.
func (c *Controller) LookupCoordinates(ctx context.Context, lat, lon float64, explicitUnit string) (view View, err error) {
	t := c.begin(ctx, "coordinates")
	defer func() { c.finish(t, err) }()

	q, err := c.resolver.Reverse(t.ctx, lat, lon)
	if err != nil {
		return View{}, c.failed(t, err)
	}
	return c.load(t, q, explicitUnit)
}

// SetUnit records an explicit unit and, when a location is shown, refetches
// it in that unit. The returned bool is false when nothing is shown yet.
func (c *Controller) SetUnit(ctx context.Context, token string) (view View, shown bool, err error) {
	u, ok := units.Parse(token)
	if !ok {
		return View{}, false, fmt.Errorf("%w: %q", ErrInvalidUnit, token)
	}

	t := c.begin(ctx, "set-unit")
	defer func() { c.finish(t, err) }()

	if err := c.prefs.SetUnit(t.ctx, u); err != nil {
		t.logger.Warn().Err(err).Msg("could not persist unit preference")
	}

	q, ok := c.currentQuery()
	if !ok {
		return View{}, false, nil
	}
	view, err = c.load(t, q, string(u))
	return view, err == nil, err
}

// ToggleUnit switches to the other unit and records it like SetUnit. With
// nothing shown it flips the stored preference, or the default unit.
func (c *Controller) ToggleUnit(ctx context.Context) (View, bool, error) {
	c.mu.Lock()
	current := c.state.Unit
	c.mu.Unlock()

	if !current.Valid() {
		current = units.Default
		if stored, ok := c.prefs.Unit(ctx); ok {
			current = stored
		}
	}
	return c.SetUnit(ctx, string(current.Toggle()))
}

// ClearUnit drops the stored preference and re-resolves the unit for the
// shown location.
func (c *Controller) ClearUnit(ctx context.Context) (view View, shown bool, err error) {
	t := c.begin(ctx, "clear-unit")
	defer func() { c.finish(t, err) }()

	if err := c.prefs.ClearUnit(t.ctx); err != nil {
		t.logger.Warn().Err(err).Msg("could not clear unit preference")
	}

	q, ok := c.currentQuery()
	if !ok {
		return View{}, false, nil
	}
	view, err = c.load(t, q, "")
	return view, err == nil, err
}

// Restore shows the stored last location, or fallback when none is stored.
func (c *Controller) Restore(ctx context.Context, fallback location.Query) (view View, err error) {
	t := c.begin(ctx, "restore")
	defer func() { c.finish(t, err) }()

	q, ok := c.prefs.LastLocation(t.ctx)
	if !ok {
		if err := fallback.Validate(); err != nil {
			return View{}, c.failed(t, err)
		}
		q = fallback
	}
	t.logger.Info().Str("location", q.DisplayName).Bool("stored", ok).Msg("restoring dashboard")
	return c.load(t, q, "")
}

// Tick refreshes the shown forecast when it is stale. Failures leave the
// shown snapshot and its fetch time alone, so the next tick tries again.
func (c *Controller) Tick(ctx context.Context) TickOutcome {
	c.mu.Lock()
	st, seq := c.state, c.seq
	c.mu.Unlock()

	if st.Query == nil {
		return TickIdle
	}
	if !c.tracker.IsStale(st.LastFetch, c.now()) {
		return TickFresh
	}

	logger := c.logger.With().Str("op", "refresh").Str("location", st.Query.DisplayName).Logger()
	snap, err := c.fetcher.FetchSnapshot(ctx, st.Query.Latitude, st.Query.Longitude, st.Unit)
	if err != nil {
		logger.Warn().Err(err).Msg("background refresh failed")
		c.observeRefresh(TickFailed)
		return TickFailed
	}

	c.mu.Lock()
	if c.seq != seq || c.state.Seq != st.Seq {
		c.mu.Unlock()
		logger.Debug().Msg("dropping background refresh; a newer request took over")
		c.observeRefresh(TickDropped)
		return TickDropped
	}
	c.state.Snapshot = &snap
	c.state.LastFetch = c.now()
	c.mu.Unlock()

	logger.Debug().Msg("background refresh applied")
	c.observeRefresh(TickRefreshed)
	return TickRefreshed
}

func (c *Controller) observeRefresh(outcome TickOutcome) {
	if c.observer != nil {
		c.observer.ObserveRefresh(string(outcome))
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View builds the presentation record for the shown location.
func (c *Controller) View(now time.Time) (View, error) {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	if st.Query == nil || st.Snapshot == nil {
		return View{}, ErrNoLocation
	}
	return buildView(st, now, c.tracker), nil
}

func (c *Controller) currentQuery() (location.Query, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Query == nil {
		return location.Query{}, false
	}
	return *c.state.Query, true
}

// load fetches q in the resolved unit and commits it if t is still latest.
func (c *Controller) load(t *task, q location.Query, explicitUnit string) (View, error) {
	var stored string
	if u, ok := c.prefs.Unit(t.ctx); ok {
		stored = string(u)
	}
	unit := units.Resolve(q.CountryCode, explicitUnit, stored)

	snap, err := c.fetcher.FetchSnapshot(t.ctx, q.Latitude, q.Longitude, unit)
	if err != nil {
		return View{}, c.failed(t, err)
	}

	now := c.now()
	c.mu.Lock()
	if c.seq != t.seq {
		c.mu.Unlock()
		t.logger.Debug().Msg("discarding result of superseded request")
		return View{}, ErrSuperseded
	}
	c.state = State{Query: &q, Unit: unit, Snapshot: &snap, LastFetch: now, Seq: t.seq}
	view := buildView(c.state, now, c.tracker)
	c.mu.Unlock()

	if err := c.prefs.SetLastLocation(context.WithoutCancel(t.ctx), q); err != nil {
		t.logger.Warn().Err(err).Msg("could not persist last location")
	}
	t.logger.Info().
		Str("location", q.DisplayName).
		Str("unit", string(unit)).
		Msg("dashboard updated")
	return view, nil
}

// failed maps errors of a task that lost the race to ErrSuperseded.
func (c *Controller) failed(t *task, err error) error {
	if !c.isLatest(t.seq) {
		return ErrSuperseded
	}
	t.logger.Warn().Err(err).Msg("request failed")
	return err
}
