/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for RelayAgent
 *
 * Counters and histograms covering workflow matching and execution, action
 * dispatch, the tool-calling completion loop, and message delivery.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* HTTP surface */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relayagent_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	/* Workflow layer */
	workflowMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_workflow_matches_total",
			Help: "Total number of workflow matcher decisions",
		},
		[]string{"workflow", "outcome"},
	)

	workflowExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_workflow_executions_total",
			Help: "Total number of workflow runs",
		},
		[]string{"workflow", "status"},
	)

	workflowStepRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_workflow_step_retries_total",
			Help: "Total number of workflow step retry attempts",
		},
		[]string{"workflow", "tool"},
	)

	workflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relayagent_workflow_duration_seconds",
			Help:    "Workflow run duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"workflow"},
	)

	/* Action dispatch */
	actionDispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_action_dispatches_total",
			Help: "Total number of action dispatches",
		},
		[]string{"tool", "mode", "status"},
	)

	/* Completion loop */
	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_llm_calls_total",
			Help: "Total number of language model calls",
		},
		[]string{"model", "status"},
	)

	llmTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_llm_tokens_total",
			Help: "Total number of language model tokens",
		},
		[]string{"model", "type"},
	)

	completionRoundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_completion_rounds_total",
			Help: "Total number of completion loop rounds by terminal branch",
		},
		[]string{"branch"},
	)

	turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relayagent_turn_duration_seconds",
			Help:    "End-to-end conversation turn duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	/* Delivery */
	deliveryEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayagent_delivery_enqueued_total",
			Help: "Total number of assistant messages queued for delivery",
		},
		[]string{"status"},
	)
)

/* RecordHTTPRequest records an HTTP request */
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordWorkflowMatch records a matcher decision */
func RecordWorkflowMatch(workflow, outcome string) {
	workflowMatchesTotal.WithLabelValues(workflow, outcome).Inc()
}

/* RecordWorkflowExecution records a finished workflow run */
func RecordWorkflowExecution(workflow, status string, duration time.Duration) {
	workflowExecutionsTotal.WithLabelValues(workflow, status).Inc()
	workflowDuration.WithLabelValues(workflow).Observe(duration.Seconds())
}

/* RecordWorkflowStepRetry records one retry attempt of a workflow step */
func RecordWorkflowStepRetry(workflow, tool string) {
	workflowStepRetriesTotal.WithLabelValues(workflow, tool).Inc()
}

/* RecordActionDispatch records one action dispatch */
func RecordActionDispatch(tool, mode, status string) {
	actionDispatchesTotal.WithLabelValues(tool, mode, status).Inc()
}

/* RecordLLMCall records a language model call */
func RecordLLMCall(model, status string) {
	llmCallsTotal.WithLabelValues(model, status).Inc()
}

/* RecordLLMTokens records token usage for a language model call */
func RecordLLMTokens(model string, promptTokens, completionTokens int) {
	llmTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	llmTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

/* RecordCompletionRound records the terminal branch of a completion loop */
func RecordCompletionRound(branch string) {
	completionRoundsTotal.WithLabelValues(branch).Inc()
}

/* RecordTurn records an end-to-end conversation turn */
func RecordTurn(status string, duration time.Duration) {
	turnDuration.WithLabelValues(status).Observe(duration.Seconds())
}

/* RecordDeliveryEnqueued records a message handed to the delivery queue */
func RecordDeliveryEnqueued(status string) {
	deliveryEnqueuedTotal.WithLabelValues(status).Inc()
}

/* Handler returns the Prometheus metrics HTTP handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
