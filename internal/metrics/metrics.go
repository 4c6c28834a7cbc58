// Package metrics exposes the engine's stats/monitoring surface (§6) as
// Prometheus vectors: records read/written, statements executed, batch
// sizes, in-flight request gauges, and the error ceiling counter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed counts records read from or written to a
	// connector, labeled by operation (load/unload/count) and outcome
	// (ok/error).
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dsbulk_records_processed_total",
			Help: "Total records processed by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// StatementsExecuted counts individual statements dispatched by the
	// Bulk Executor, labeled by kind (write/read) and outcome.
	StatementsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dsbulk_statements_executed_total",
			Help: "Total statements executed by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// StatementDuration tracks per-statement execution latency.
	StatementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dsbulk_statement_duration_seconds",
			Help:    "Statement execution duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"kind"},
	)

	// BatchSize tracks the number of statements per flushed batch.
	BatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dsbulk_batch_size_statements",
			Help:    "Number of statements per flushed batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"batcherMode"},
	)

	// InFlightRequests is the current number of requests the executor
	// has dispatched but not yet completed.
	InFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dsbulk_in_flight_requests",
			Help: "Number of requests currently in flight",
		},
	)

	// ObservedThroughput is the gauge for observed requests per second.
	// It is registered and exported, but no package in this module sets
	// it, so it stays at 0.
	ObservedThroughput = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dsbulk_observed_requests_per_second",
			Help: "Observed request throughput",
		},
	)

	// ErrorCeilingHits counts how many times an operation aborted
	// because the error ceiling was exceeded.
	ErrorCeilingHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dsbulk_error_ceiling_hits_total",
			Help: "Total times an operation aborted due to the error ceiling",
		},
		[]string{"operation"},
	)
)

// RecordProcessed increments RecordsProcessed for one record.
func RecordProcessed(operation, outcome string) {
	RecordsProcessed.WithLabelValues(operation, outcome).Inc()
}

// RecordStatement records one statement's outcome and duration.
func RecordStatement(kind, outcome string, durationSeconds float64) {
	StatementsExecuted.WithLabelValues(kind, outcome).Inc()
	StatementDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordBatch records one flushed batch's size.
func RecordBatch(batcherMode string, size int) {
	BatchSize.WithLabelValues(batcherMode).Observe(float64(size))
}

// RecordErrorCeilingHit records one operation aborting on the error
// ceiling.
func RecordErrorCeilingHit(operation string) {
	ErrorCeilingHits.WithLabelValues(operation).Inc()
}
