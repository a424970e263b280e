package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialdeck_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// GenerationRequests counts generation attempts by kind and outcome.
	GenerationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialdeck_generation_requests_total",
		Help: "Content generation requests by kind and outcome",
	}, []string{"kind", "outcome"})

	// GenerationLatency records how long generation backends take.
	GenerationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialdeck_generation_latency_seconds",
		Help:    "Content generation backend latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"kind"})

	// PersistenceFailures counts swallowed store write failures.
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialdeck_persistence_failures_total",
		Help: "Store writes that failed and were logged only",
	}, []string{"store", "tier"})

	// PostMutations counts scheduled-post working set mutations.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialdeck_post_mutations_total",
		Help: "Scheduled post mutations by operation",
	}, []string{"operation"})
)

// TrackGeneration returns a function that records latency and outcome when called.
func TrackGeneration(kind string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		GenerationLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		GenerationRequests.WithLabelValues(kind, outcome).Inc()
	}
}
