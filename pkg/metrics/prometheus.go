package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Report pipeline
	RequestsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_requests_consumed_total",
			Help: "Total number of report requests read from the request topic",
		},
	)

	ReportsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reports_completed_total",
			Help: "Total number of reports persisted as Completed",
		},
	)

	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_aggregation_duration_seconds",
			Help:    "Time from request pickup to persisted report",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_created_events_total",
			Help: "Completion events handed to the broker",
		},
		[]string{"result"}, // "ok", "failed"
	)

	PipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_pipeline_failures_total",
			Help: "Report requests that failed, by error kind",
		},
		[]string{"kind"}, // upstream, deserialization, persistence, consume
	)

	DeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_requests_dead_lettered_total",
			Help: "Report requests routed to the dead-letter topic",
		},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)
