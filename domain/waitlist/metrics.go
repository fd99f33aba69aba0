package waitlist

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "storage_failed"
)

type submissionMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	appendDuration     prometheus.Histogram
	mirrorFailures     prometheus.Counter
	// 0 closed, 1 open, 2 half-open.
	mirrorCircuitState prometheus.Gauge
}

// newSubmissionMetrics registers with reg when it is non-nil. Collectors stay
// usable without a registry so callers never branch on metrics being enabled.
func newSubmissionMetrics(reg prometheus.Registerer) *submissionMetrics {
	m := &submissionMetrics{
		submissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_submissions_total",
				Help: "Waitlist submissions by outcome.",
			},
			[]string{"outcome"},
		),
		appendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "waitlist_append_duration_seconds",
				Help:    "Time spent appending a row to the waitlist CSV.",
				Buckets: prometheus.DefBuckets,
			},
		),
		mirrorFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "waitlist_mirror_failures_total",
				Help: "Accepted submissions that could not be copied to the database.",
			},
		),
		mirrorCircuitState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "waitlist_mirror_circuit_state",
				Help: "Database mirror circuit breaker state (0 closed, 1 open, 2 half-open).",
			},
		),
	}

	if reg != nil {
		m.submissionsTotal = registerOrExisting(reg, m.submissionsTotal)
		m.appendDuration = registerOrExisting(reg, m.appendDuration)
		m.mirrorFailures = registerOrExisting(reg, m.mirrorFailures)
		m.mirrorCircuitState = registerOrExisting(reg, m.mirrorCircuitState)
	}

	return m
}

func registerOrExisting[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *submissionMetrics) observe(outcome string) {
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}
