package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carebridge_audit_records_queued_total",
		Help: "Audit records appended to the pending queue",
	})
	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carebridge_audit_events_published_total",
		Help: "Audit events handed to the message bus",
	})
	BatchesFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carebridge_audit_batches_flushed_total",
		Help: "Batches bulk-inserted into the audit store",
	})
	FlushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carebridge_audit_flush_errors_total",
		Help: "Errors swallowed during flush passes",
	})
	RecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carebridge_audit_records_dropped_total",
		Help: "Records lost after a failed bulk insert and failed requeue",
	})
	RecordsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carebridge_audit_records_purged_total",
		Help: "Records deleted by the retention purge",
	})
	FlushDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "carebridge_audit_flush_duration_ms",
		Help:    "Latency of full flush passes in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)
