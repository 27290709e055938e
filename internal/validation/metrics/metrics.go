package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the validation module.
type Metrics struct {
	// Validation runs by file type and outcome
	RunsTotal *prometheus.CounterVec

	// Violations reported by file type and severity
	ViolationsTotal *prometheus.CounterVec

	// Lines processed per run
	LinesPerRun prometheus.Histogram

	// Full run latency including rule evaluation and aggregation
	RunLatency prometheus.Histogram
}

// New creates a new Metrics instance with all validation module metrics registered.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "valido_validation_runs_total",
			Help: "Total validation runs by file type and outcome",
		}, []string{"file_type", "outcome"}), // outcome: "valid", "invalid", "error"

		ViolationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "valido_validation_violations_total",
			Help: "Total violations reported by file type and severity",
		}, []string{"file_type", "severity"}),

		LinesPerRun: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "valido_validation_lines_per_run",
			Help:    "Number of lines processed per validation run",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),

		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "valido_validation_run_duration_seconds",
			Help:    "Duration of a full validation run",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementRun records a completed validation run.
func (m *Metrics) IncrementRun(fileType, outcome string) {
	if m != nil {
		m.RunsTotal.WithLabelValues(fileType, outcome).Inc()
	}
}

// AddViolations records reported violations for a run.
func (m *Metrics) AddViolations(fileType, severity string, n int) {
	if m != nil && n > 0 {
		m.ViolationsTotal.WithLabelValues(fileType, severity).Add(float64(n))
	}
}

// ObserveLines records the size of a run.
func (m *Metrics) ObserveLines(n int) {
	if m != nil {
		m.LinesPerRun.Observe(float64(n))
	}
}

// ObserveRunLatency records the total run duration.
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}
