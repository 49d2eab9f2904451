// Package metrics содержит prometheus-метрики движка синхронизации.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stortingsync"

var (
	// SyncItems количество обработанных элементов по виду и действию (added/updated/skipped)
	SyncItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_items_total",
		Help:      "Items processed by the batch upsert, by kind and action.",
	}, []string{"kind", "action"})

	// BatchDuration длительность одной пакетной транзакции
	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_batch_duration_seconds",
		Help:      "Duration of a single batch upsert transaction.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "workflow_step_duration_seconds",
		Help:      "Duration of workflow steps including retries.",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 300},
	}, []string{"step"})

	StepRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_step_retries_total",
		Help:      "Retried workflow step attempts.",
	}, []string{"step"})

	WorkflowsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflows_finished_total",
		Help:      "Workflow instances that reached a terminal state.",
	}, []string{"status"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Requests sent to the Stortinget API.",
	}, []string{"endpoint", "outcome"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of Stortinget API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	// BreakerState 0 closed, 1 half-open, 2 open
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "upstream_breaker_state",
		Help:      "Circuit breaker state of the upstream client.",
	}, []string{"name"})
)

// StepLabel сворачивает имя шага fan-out ("votes/123") до префикса,
// чтобы не плодить метки с идентификаторами.
func StepLabel(step string) string {
	if i := strings.IndexByte(step, '/'); i >= 0 {
		suffix := step[i+1:]
		if suffix == "record" {
			return step
		}
		return step[:i]
	}
	return step
}
