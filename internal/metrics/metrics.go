// Package metrics holds the Prometheus collectors of saldo-certo.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the process-wide collectors.
type Metrics struct {
	// Interpretation
	UtterancesTotal     *prometheus.CounterVec
	TransactionsTotal   *prometheus.CounterVec
	CategoryResolutions *prometheus.CounterVec
	PendingPromptsTotal *prometheus.CounterVec
	LearnedWordsTotal   prometheus.Counter
	MenuActionsTotal    *prometheus.CounterVec

	// Exports
	ExportJobsTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - saldo_utterances_total{result} - parsed, greeting, not_understood, error
//   - saldo_transactions_total{direction} - persisted transactions
//   - saldo_category_resolutions_total{source} - learned, keyword, none
//   - saldo_pending_prompts_total{event} - created, resolved, expired, evicted
//   - saldo_learned_words_total - learn calls made after a category choice
//   - saldo_menu_actions_total{action}
//   - saldo_export_jobs_total{status} - completed, failed, retrying
//   - saldo_http_requests_total{method,status}
//   - saldo_http_request_duration_seconds{method}
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			UtterancesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saldo_utterances_total",
					Help: "Total number of text messages interpreted",
				},
				[]string{"result"},
			),
			TransactionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saldo_transactions_total",
					Help: "Total number of transactions persisted",
				},
				[]string{"direction"},
			),
			CategoryResolutions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saldo_category_resolutions_total",
					Help: "Total number of category decisions by resolution tier",
				},
				[]string{"source"},
			),
			PendingPromptsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saldo_pending_prompts_total",
					Help: "Total number of category prompt lifecycle events",
				},
				[]string{"event"},
			),
			LearnedWordsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "saldo_learned_words_total",
					Help: "Total number of words submitted for learning",
				},
			),
			MenuActionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saldo_menu_actions_total",
					Help: "Total number of menu actions handled",
				},
				[]string{"action"},
			),
			ExportJobsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saldo_export_jobs_total",
					Help: "Total number of export archive job outcomes",
				},
				[]string{"status"},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "saldo_http_requests_total",
					Help: "Total number of HTTP requests served",
				},
				[]string{"method", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "saldo_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method"},
			),
		}
	})
	return globalMetrics
}
