package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weather_dashboard"

// Metrics holds the dashboard's instruments on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	Refreshes        *prometheus.CounterVec
	Operations       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound requests by collaborator and outcome.",
		},
		[]string{"upstream", "outcome"},
	)
	m.UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of outbound requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)
	m.Refreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_refreshes_total",
			Help:      "Background refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)
	m.Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Foreground dashboard operations by kind and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	m.registry.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.Refreshes,
		m.Operations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUpstream satisfies upstream.Observer.
func (m *Metrics) ObserveUpstream(upstream, outcome string, elapsed time.Duration) {
	m.UpstreamRequests.WithLabelValues(upstream, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(upstream).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRefresh(outcome string) {
	m.Refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
