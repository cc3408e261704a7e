package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsync_webhook_requests_total",
			Help: "Webhook requests by response status code",
		},
		[]string{"status"},
	)

	// NotificationOutcomes counts routed notifications by action and outcome
	// (synced, deleted, skipped, superseded, failed).
	NotificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsync_notification_outcomes_total",
			Help: "Processed webhook notifications by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	NotificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recsync_notification_duration_seconds",
			Help:    "Time spent processing a single notification",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	EngineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsync_engine_requests_total",
			Help: "Batched recommendation engine requests by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)

	EngineRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recsync_engine_request_duration_seconds",
			Help:    "Latency of batched recommendation engine requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsync_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	OutcomeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recsync_outcome_events_total",
			Help: "Outcome events handed to the event publisher by result",
		},
		[]string{"result"},
	)
)
