package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opa_batches_total",
		Help: "Line-item batches by outcome (processed, rejected)",
	}, []string{"outcome"})

	OrderMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opa_order_mutations_total",
		Help: "Per-order line-item attempts by status",
	}, []string{"status"})

	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opa_audit_write_failures_total",
		Help: "Audit log entries that could not be persisted",
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opa_http_latency_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
