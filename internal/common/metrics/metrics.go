// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asha_pipeline_requests_total",
			Help: "Total number of pipeline responses by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asha_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"outcome"},
	)

	PipelineActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asha_pipeline_active",
			Help: "Number of pipeline requests currently in flight",
		},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asha_llm_calls_total",
			Help: "Total number of LLM calls by kind (chat, sentiment) and result",
		},
		[]string{"kind", "result"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asha_llm_call_duration_seconds",
			Help:    "Duration of LLM calls in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"kind"},
	)

	RetrievalSourceCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asha_retrieval_source_calls_total",
			Help: "Total number of retrieval source calls by source and result",
		},
		[]string{"source", "result"},
	)

	RetrievalCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asha_retrieval_cache_total",
			Help: "Retrieval cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	RetrievalFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asha_retrieval_fallback_total",
			Help: "Number of retrievals served from the static dataset because every source failed",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asha_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asha_store_errors_total",
			Help: "Message store failures by operation",
		},
		[]string{"operation"},
	)
)
