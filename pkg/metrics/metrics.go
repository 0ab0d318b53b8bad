package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ledger operations by name and result (ok, not_found, unauthorized, ...).
	OperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operation_total",
			Help: "Total number of ledger operations by result",
		},
		[]string{"operation", "result"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Ledger operation duration in seconds, lock wait included",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"operation"},
	)

	GatewayCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_latency_ms",
			Help:    "Fund transfer gateway call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms to ~2s
		},
		[]string{"call", "status"},
	)

	JournalEntryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_entry_total",
			Help: "Total number of journal entries recorded",
		},
		[]string{"message"},
	)

	// outcome: executed, failed, not_due
	ScheduledPaymentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_payment_total",
			Help: "Recurring payments seen by the scheduler by outcome",
		},
		[]string{"outcome"},
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"routing_key", "queue"},
	)

	DBQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries above the slow query threshold",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

func RecordOperation(operation, result string, duration time.Duration) {
	OperationCount.WithLabelValues(operation, result).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordGatewayCall(call, status string, duration time.Duration) {
	GatewayCallLatency.WithLabelValues(call, status).Observe(float64(duration.Milliseconds()))
}

func IncrementJournalEntry(message string) {
	JournalEntryCount.WithLabelValues(message).Inc()
}

func IncrementScheduledPayment(outcome string) {
	ScheduledPaymentCount.WithLabelValues(outcome).Inc()
}

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

func RecordDBQueryDuration(duration time.Duration) {
	DBQueryDuration.Observe(duration.Seconds())
}

func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
