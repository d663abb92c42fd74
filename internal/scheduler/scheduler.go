package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/rs/zerolog"
)

// Ticker is the background refresh entry point.
type Ticker interface {
	Tick(ctx context.Context) dashboard.TickOutcome
}

// Scheduler periodically asks the dashboard to refresh stale data.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ticker    Ticker
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(ticker Ticker, interval, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		ticker:    ticker,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the tick job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info().Dur("interval", interval).Msg("refresh scheduler started")
	return nil
}

func (s *Scheduler) run() {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	outcome := s.ticker.Tick(ctx)
	s.logger.Debug().Str("outcome", string(outcome)).Msg("refresh tick")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
