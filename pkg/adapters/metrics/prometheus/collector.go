// Package prometheus implements the metrics collector port on the
// Prometheus client library.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus.
type Collector struct {
	orchestrations        *prometheus.CounterVec
	orchestrationDuration prometheus.Histogram
	activeOrchestrations  prometheus.Gauge

	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec

	retries     *prometheus.CounterVec
	escalations *prometheus.CounterVec

	llmCalls   *prometheus.CounterVec
	llmTokens  *prometheus.CounterVec
	llmCost    *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec
}

// NewCollector creates a Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{
		orchestrations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swell_orchestrations_total",
				Help: "Total number of orchestrations by final status",
			},
			[]string{"status"},
		),
		orchestrationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "swell_orchestration_duration_seconds",
				Help:    "End-to-end orchestration duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		activeOrchestrations: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "swell_active_orchestrations",
				Help: "Number of currently active orchestrations",
			},
		),
		tasks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swell_tasks_total",
				Help: "Total number of tasks executed by tier and status",
			},
			[]string{"tier", "status"},
		),
		taskDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swell_task_duration_seconds",
				Help:    "Task execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"tier"},
		),
		retries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swell_task_retries_total",
				Help: "Total number of task retry attempts by backend",
			},
			[]string{"backend"},
		),
		escalations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swell_task_escalations_total",
				Help: "Total number of task escalations by source and target backend",
			},
			[]string{"from", "to"},
		),
		llmCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swell_llm_calls_total",
				Help: "Total number of LLM API calls by backend",
			},
			[]string{"backend"},
		),
		llmTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swell_llm_tokens_total",
				Help: "Total number of LLM tokens used by backend and direction",
			},
			[]string{"backend", "type"},
		),
		llmCost: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swell_llm_cost_usd_total",
				Help: "Total LLM cost in USD by backend",
			},
			[]string{"backend"},
		),
		llmLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swell_llm_latency_seconds",
				Help:    "LLM API call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60},
			},
			[]string{"backend"},
		),
	}
}

// RecordOrchestration records a finished orchestration.
func (c *Collector) RecordOrchestration(status string, duration time.Duration) {
	c.orchestrations.WithLabelValues(status).Inc()
	c.orchestrationDuration.Observe(duration.Seconds())
}

// RecordTask records a finished task.
func (c *Collector) RecordTask(tier string, status string, duration time.Duration) {
	c.tasks.WithLabelValues(tier, status).Inc()
	c.taskDuration.WithLabelValues(tier).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (c *Collector) RecordRetry(backend string) {
	c.retries.WithLabelValues(backend).Inc()
}

// RecordEscalation records one escalation between backends.
func (c *Collector) RecordEscalation(from, to string) {
	c.escalations.WithLabelValues(from, to).Inc()
}

// RecordLLMCall records one successful LLM API call.
func (c *Collector) RecordLLMCall(backend string, inputTokens, outputTokens int, cost float64, latency time.Duration) {
	c.llmCalls.WithLabelValues(backend).Inc()
	c.llmTokens.WithLabelValues(backend, "input").Add(float64(inputTokens))
	c.llmTokens.WithLabelValues(backend, "output").Add(float64(outputTokens))
	c.llmCost.WithLabelValues(backend).Add(cost)
	c.llmLatency.WithLabelValues(backend).Observe(latency.Seconds())
}

// SetActiveOrchestrations sets the number of currently active
// orchestrations.
func (c *Collector) SetActiveOrchestrations(count int) {
	c.activeOrchestrations.Set(float64(count))
}
