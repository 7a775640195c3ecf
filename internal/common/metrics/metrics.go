// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelinesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_completed_total",
			Help: "Total number of pipelines run to a verdict",
		},
		[]string{"domain"},
	)

	PipelinesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_failed_total",
			Help: "Total number of pipelines ending in the failed state",
		},
		[]string{"domain", "error_code"},
	)

	AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_invocation_duration_seconds",
			Help: "Duration of agent invocations in seconds",
		},
		[]string{"agent"},
	)

	AgentInvocationsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agent_invocations_active",
			Help: "Number of in-flight invocations per agent",
		},
		[]string{"agent"},
	)

	AICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "Total AI provider calls by outcome",
		},
		[]string{"analysis_type", "outcome"},
	)

	AIFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "Total AI failures covered by the traditional result",
		},
		[]string{"analysis_type"},
	)

	AIQueueWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "ai_queue_wait_seconds",
			Help: "Time spent waiting for an AI concurrency slot",
		},
	)

	AIInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_calls_in_flight",
			Help: "AI provider calls currently holding a slot",
		},
	)

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_alerts_sent_total",
			Help: "Critical-risk alerts delivered by channel",
		},
		[]string{"channel", "status"},
	)
)
