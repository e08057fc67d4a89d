// Package metrics exposes Prometheus instrumentation for the token API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records token refresh outcomes.
type Metrics struct {
	refreshTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.  Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		refreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_token_refresh_total",
				Help: "Total number of pipeline token refresh requests by outcome",
			},
			[]string{"outcome"},
		),
		refreshDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_token_refresh_duration_seconds",
				Help:    "Duration of pipeline token refresh requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRefresh records one refresh request.  outcome is "success" or the
// failure kind (not_found, unauthorized, forbidden, unknown, bad_request).
// A nil receiver is a no-op.
func (m *Metrics) ObserveRefresh(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(outcome).Inc()
	m.refreshDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
