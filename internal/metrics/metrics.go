package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_agent_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "orderboard_agent_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	IntentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_agent_intents_total",
			Help: "Total number of classified intents",
		},
		[]string{"intent"},
	)

	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_agent_pipeline_errors_total",
			Help: "Total number of pipeline stage failures",
		},
		[]string{"stage"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "orderboard_agent_pipeline_duration_seconds",
			Help: "End-to-end query pipeline duration in seconds",
		},
	)

	MemoryTurns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderboard_agent_memory_turns",
			Help: "Number of turns currently held in conversation memory",
		},
	)
)
