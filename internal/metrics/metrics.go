// Package metrics exposes Prometheus collectors for query execution.
//
// A nil *Metrics is valid and records nothing, so callers that do not
// export metrics pass nil instead of branching.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "querykit"

// Outcome labels for executions_total.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics contains Prometheus metrics for the execution engine.
type Metrics struct {
	executions *prometheus.CounterVec
	roundTrips *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. An empty namespace
// uses DefaultNamespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "Total number of plan executions by cardinality contract and outcome",
			},
			[]string{"cardinality", "outcome"},
		),

		roundTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "round_trips_total",
				Help:      "Total number of storage round trips by operation",
			},
			[]string{"operation"},
		),

		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "execution_duration_seconds",
				Help:      "Duration of plan executions in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
			[]string{"cardinality"},
		),
	}
}

// RecordExecution records one finished execution.
func (m *Metrics) RecordExecution(cardinality string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.executions.WithLabelValues(cardinality, outcome).Inc()
	m.duration.WithLabelValues(cardinality).Observe(elapsed.Seconds())
}

// RecordRoundTrip records one storage call ("select" or "count").
func (m *Metrics) RecordRoundTrip(operation string) {
	if m == nil {
		return
	}
	m.roundTrips.WithLabelValues(operation).Inc()
}
