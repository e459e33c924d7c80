package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_model_calls_total",
			Help: "Total number of model completion calls.",
		},
		[]string{"provider", "kind", "status"},
	)
	modelCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlquery_model_call_duration_seconds",
			Help:    "Model completion latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "kind"},
	)
	synthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_synthesis_total",
			Help: "Total number of finished query syntheses by terminal status.",
		},
		[]string{"status"},
	)
	reflectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nlquery_reflections_total",
			Help: "Total number of reflection cycles.",
		},
	)
	synthesisAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nlquery_synthesis_attempts",
			Help:    "Reflection attempts used per synthesis.",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlquery_query_duration_seconds",
			Help:    "Query execution latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		modelCallsTotal,
		modelCallDurationSeconds,
		synthesisTotal,
		reflectionsTotal,
		synthesisAttempts,
		queryDurationSeconds,
	)
}

func ObserveModelCall(provider, kind string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	modelCallsTotal.WithLabelValues(provider, kind, status).Inc()
	modelCallDurationSeconds.WithLabelValues(provider, kind).Observe(elapsed.Seconds())
}

func ObserveSynthesis(status string, attemptsUsed int) {
	synthesisTotal.WithLabelValues(status).Inc()
	if attemptsUsed < 0 {
		attemptsUsed = 0
	}
	synthesisAttempts.Observe(float64(attemptsUsed))
}

func IncrementReflections() {
	reflectionsTotal.Inc()
}

// ObserveQuery records an execution. status is "ok", "rejected" for engine
// diagnostics or "error" for infrastructure failures.
func ObserveQuery(status string, elapsed time.Duration) {
	queryDurationSeconds.WithLabelValues(status).Observe(elapsed.Seconds())
}
