package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 摘要模型调用延迟（毫秒）
	ModelCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarizer_call_latency_ms",
			Help:    "Summarization model call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"backend", "status"},
	)

	// Gmail 拉取延迟（秒）
	MailFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mail_fetch_duration_seconds",
			Help:    "Mail source fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~65s
		},
		[]string{"method", "path", "status"},
	)

	// 邮件分拣结果计数
	TriageOutcomeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_outcome_count",
			Help: "Total number of fetched emails per triage outcome",
		},
		[]string{"status"}, // status: stored, below_threshold, score_failed, summarize_failed, store_failed
	)

	// 事件发布失败计数
	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_failure_count",
			Help: "Total number of events that could not be published",
		},
		[]string{"routing_key"},
	)
)

// RecordModelCallLatency 记录摘要模型调用延迟
func RecordModelCallLatency(backend, status string, duration time.Duration) {
	ModelCallLatency.WithLabelValues(backend, status).Observe(float64(duration.Milliseconds()))
}

// RecordMailFetchDuration 记录 Gmail 拉取耗时
func RecordMailFetchDuration(status string, duration time.Duration) {
	MailFetchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementTriageOutcome 增加分拣结果计数
func IncrementTriageOutcome(status string) {
	TriageOutcomeCount.WithLabelValues(status).Inc()
}

// IncrementEventPublishFailure 增加事件发布失败计数
func IncrementEventPublishFailure(routingKey string) {
	EventPublishFailures.WithLabelValues(routingKey).Inc()
}
