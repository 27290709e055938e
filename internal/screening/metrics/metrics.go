package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the screening module.
type Metrics struct {
	// Screens by identifier kind and verdict
	ScreensTotal *prometheus.CounterVec

	// Cache lookups by outcome
	CacheTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all screening module metrics registered.
func New() *Metrics {
	return &Metrics{
		ScreensTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "valido_screening_screens_total",
			Help: "Total identifier screens by kind and verdict",
		}, []string{"kind", "verdict"}), // verdict: "valid", "invalid"

		CacheTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "valido_screening_cache_total",
			Help: "Screening cache lookups by outcome",
		}, []string{"outcome"}), // outcome: "hit", "miss", "error"
	}
}

// IncrementScreen records one screening verdict.
func (m *Metrics) IncrementScreen(kind string, valid bool) {
	if m != nil {
		verdict := "invalid"
		if valid {
			verdict = "valid"
		}
		m.ScreensTotal.WithLabelValues(kind, verdict).Inc()
	}
}

// IncrementCache records one cache lookup outcome.
func (m *Metrics) IncrementCache(outcome string) {
	if m != nil {
		m.CacheTotal.WithLabelValues(outcome).Inc()
	}
}
