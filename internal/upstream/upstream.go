package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 64 << 10

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of zero means a single attempt.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// BreakerConfig configures the circuit breaker guarding one collaborator.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// Observer receives one call per finished request.
type Observer interface {
	ObserveUpstream(upstream, outcome string, elapsed time.Duration)
}

// Config bundles the HTTP client and resilience settings for one collaborator.
type Config struct {
	Name     string
	Client   *http.Client
	Backoff  BackoffConfig
	Limiter  *rate.Limiter
	Observer Observer
}

// StatusError is returned for non-2xx responses. Body holds the (truncated) payload.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, body)
}

var (
	ErrCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// NewBreaker builds the circuit breaker for a named collaborator.
func NewBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
}

// Do executes the request built by buildRequest through the limiter and circuit
// breaker, retrying transient failures as configured. The caller owns the body
// of the returned response, which always has a 2xx status.
func Do(
	ctx context.Context,
	cfg Config,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}

	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if cfg.Limiter != nil {
			if err := cfg.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait canceled: %w", err)
			}
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		start := time.Now()
		resp, err := execute(cfg.Client, cb, req)
		cfg.observe(start, err)
		if err == nil {
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		if !retryable(err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if cfg.Backoff.MaxInterval > 0 && delay > cfg.Backoff.MaxInterval {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// execute runs one attempt. Client errors (4xx other than 429) do not count
// against the breaker but are still returned as *StatusError.
func execute(client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	var clientErr *StatusError

	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		statusErr := readStatusError(resp)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		clientErr = statusErr
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	if clientErr != nil {
		return nil, clientErr
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

func readStatusError(resp *http.Response) *StatusError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: body}
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (cfg Config) observe(start time.Time, err error) {
	if cfg.Observer == nil {
		return
	}
	outcome := "success"
	var se *StatusError
	switch {
	case err == nil:
	case errors.As(err, &se):
		outcome = fmt.Sprintf("status_%dxx", se.Code/100)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "circuit_open"
	default:
		outcome = "error"
	}
	cfg.Observer.ObserveUpstream(cfg.Name, outcome, time.Since(start))
}
