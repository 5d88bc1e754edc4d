// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_operations_total",
			Help: "Total number of registration engine operations",
		},
		[]string{"op", "outcome"},
	)

	RegistrationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registration_operation_duration_seconds",
			Help:    "Registration engine operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	StorageRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_transaction_retries_total",
			Help: "Transactions retried after lock contention",
		},
		[]string{"dialect"},
	)

	CounterDrift = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "offering_counter_drift",
			Help: "Offerings whose cached enrolled count disagreed with the ledger at the last check",
		},
	)

	IssuedIDs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "issued_class_ids_total",
			Help: "Class ids handed out by the generator",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
