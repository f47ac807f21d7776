// Package observability provides Prometheus metrics for the review loop.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trp_reviews_total",
			Help: "Total number of review sessions",
		},
		[]string{"outcome"}, // outcome: converged, capped, error
	)

	reviewLoops = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trp_review_loops",
			Help:    "Loops completed per review session",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trp_llm_calls_total",
			Help: "Total number of LLM API calls",
		},
		[]string{"step", "status"}, // step: critique, revision, evaluation
	)

	llmDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trp_llm_call_duration_seconds",
			Help:    "LLM call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"step"},
	)
)

// ObserveLLMCall records one LLM call with its step, status, and duration.
func ObserveLLMCall(step string, err error, dur time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	llmCallsTotal.WithLabelValues(step, status).Inc()
	llmDurationSeconds.WithLabelValues(step).Observe(dur.Seconds())
}

// ObserveReview records a finished review session and its loop count.
func ObserveReview(outcome string, loops int) {
	reviewsTotal.WithLabelValues(outcome).Inc()
	reviewLoops.Observe(float64(loops))
}

// Handler exposes the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
