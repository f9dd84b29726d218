package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency across every mounted route.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "meridian",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// --- C1 credential lifecycle ---

var CredentialRefreshTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "credential",
		Name:      "refresh_total",
		Help:      "Total number of credential refresh attempts by integration and outcome.",
	},
	[]string{"integration", "outcome"},
)

var CredentialAcquireDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "meridian",
		Subsystem: "credential",
		Name:      "acquire_duration_seconds",
		Help:      "Duration of Acquire calls, including any synchronous refresh.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"integration"},
)

// --- C2 sync orchestrator ---

var SyncDispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "sync",
		Name:      "dispatch_total",
		Help:      "Total number of sync jobs dispatched by integration and mode.",
	},
	[]string{"integration", "mode"},
)

var SyncErrorTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "sync",
		Name:      "error_total",
		Help:      "Total number of sync runs that terminated with an error, by kind.",
	},
	[]string{"integration", "kind"},
)

// --- C3 ingestion & reconciliation ---

var EventsDeduplicatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "ingest",
		Name:      "deduplicated_total",
		Help:      "Total number of webhook events recognized as duplicates.",
	},
	[]string{"system"},
)

var ReconcileConflictSkippedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "ingest",
		Name:      "conflict_skipped_total",
		Help:      "Total number of updates skipped because the internal row was newer.",
	},
	[]string{"system", "entity_kind"},
)

// --- C4 AI pipeline ---

var RoutingDecisionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "ai",
		Name:      "routing_decision_total",
		Help:      "Total number of AI suggestions routed, by action kind and decision.",
	},
	[]string{"action_kind", "decision"},
)

var FeedbackTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "ai",
		Name:      "feedback_total",
		Help:      "Total number of feedback rows recorded, by action.",
	},
	[]string{"action"},
)

// --- C5 topic aggregation ---

var TopicsMergedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "topics",
		Name:      "merged_total",
		Help:      "Total number of incoming topics merged into an existing global topic.",
	},
)

var TopicsCreatedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "topics",
		Name:      "created_total",
		Help:      "Total number of new global topics created.",
	},
)

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors,
// the shared HTTP metric, and every domain collector declared above.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
		CredentialRefreshTotal,
		CredentialAcquireDuration,
		SyncDispatchTotal,
		SyncErrorTotal,
		EventsDeduplicatedTotal,
		ReconcileConflictSkippedTotal,
		RoutingDecisionTotal,
		FeedbackTotal,
		TopicsMergedTotal,
		TopicsCreatedTotal,
	)
	return reg
}
