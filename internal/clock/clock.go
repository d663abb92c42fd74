package clock

import "time"

const (
	// RefreshInterval is the age at which fetched data is considered stale.
	RefreshInterval = 15 * time.Minute
	// TickInterval is how often staleness is evaluated.
	TickInterval = 60 * time.Second
)

// CurrentHourFraction locates now's hour in a series of hour-of-day labels and
// returns the index plus the elapsed fraction of that hour.
// The second result is false when the hour is not in the series.
func CurrentHourFraction(labels []int, now time.Time) (float64, bool) {
	hour := now.Hour()
	for i, h := range labels {
		if h != hour {
			continue
		}
		minutes := float64(now.Minute()) + float64(now.Second())/60
		return float64(i) + minutes/60, true
	}
	return -1, false
}

// HourLabels maps timestamps to their hour of day.
func HourLabels(times []time.Time) []int {
	labels := make([]int, len(times))
	for i, t := range times {
		labels[i] = t.Hour()
	}
	return labels
}

// IsStale reports whether data fetched at lastFetch should be refreshed at now.
func IsStale(lastFetch, now time.Time) bool {
	return Tracker{Interval: RefreshInterval}.IsStale(lastFetch, now)
}

// Tracker is a staleness check with a configurable interval.
type Tracker struct {
	Interval time.Duration
}

// IsStale reports whether at least Interval has elapsed since lastFetch.
// A zero Interval falls back to RefreshInterval.
func (t Tracker) IsStale(lastFetch, now time.Time) bool {
	interval := t.Interval
	if interval <= 0 {
		interval = RefreshInterval
	}
	return now.Sub(lastFetch) >= interval
}
