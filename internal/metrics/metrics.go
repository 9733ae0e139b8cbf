// Package metrics exposes Prometheus collectors for the planner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meal_planner"

// Extraction results used as the "result" label.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Planning Metrics
var (
	PlansGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plans_generated_total",
		Help:      "Weekly plans assembled.",
	})

	PlanEmptySlots = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plan_empty_slots_total",
		Help:      "Slots left empty because no recipe was eligible.",
	})

	HistoryAppendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plan_history_append_failures_total",
		Help:      "Plan history entries that could not be written.",
	})
)

// Shopping Metrics
var (
	ShoppingItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "shopping_items",
		Help:      "Line items in the most recently computed shopping list.",
	})

	ShoppingEntriesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shopping_entries_pruned_total",
		Help:      "Stale shopping state entries removed by reconciliation.",
	})
)

// Extraction Metrics
var (
	ExtractionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_requests_total",
			Help:      "Recipe extraction requests by result.",
		},
		[]string{"result"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed by language model calls.",
		},
		[]string{"agent", "model", "kind"},
	)

	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language model call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent"},
	)
)
