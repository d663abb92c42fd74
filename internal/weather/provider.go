package weather

import (
	"context"
	"errors"
	"fmt"

	"github.com/i474232898/weather-dashboard/internal/units"
)

// ErrFetch marks any failure to obtain or interpret a forecast.
var ErrFetch = errors.New("weather fetch failed")

// FetchError carries the upstream status and reason when the collaborator
// reported one. It unwraps to ErrFetch and to the underlying cause.
type FetchError struct {
	Status int
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Reason != "" && e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", ErrFetch, e.Status, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", ErrFetch, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", ErrFetch, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", ErrFetch, e.Status)
	default:
		return ErrFetch.Error()
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

// Fetcher abstracts the forecast source. One call per invocation, no retries.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, lat, lon float64, unit units.Unit) (Snapshot, error)
}

// RadarSource abstracts the radar tile manifest.
type RadarSource interface {
	LatestFrame(ctx context.Context) (RadarFrame, error)
}
