// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InferenceBatchSize is a histogram for tracking inference batch sizes
	InferenceBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_batch_size",
			Help:    "Histogram of batch sizes passed to the inference engine.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
	)

	// InferenceLatencySeconds is a histogram for inference-only latency
	InferenceLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of latency (seconds) of a single inference engine call.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// PreprocessLatencySeconds is a histogram for per-query preprocessing
	PreprocessLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "preprocess_latency_seconds",
			Help:    "Histogram of latency (seconds) of preprocessing one query.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// SkippedQueries counts queries dropped from a batch, by reason
	SkippedQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skipped_queries_total",
			Help: "Number of queries skipped during batching.",
		},
		[]string{"reason"},
	)

	// Configured is a gauge indicating whether a model is bound
	Configured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_configured",
			Help: "Whether a model is bound (1 = configured, 0 = unconfigured).",
		},
	)
)

// RecordInferenceBatch records the batch size for an inference call
func RecordInferenceBatch(size int) {
	InferenceBatchSize.Observe(float64(size))
}

// RecordInferenceLatency records the latency of an inference call
func RecordInferenceLatency(seconds float64) {
	InferenceLatencySeconds.Observe(seconds)
}

// RecordPreprocessLatency records the latency of preprocessing one query
func RecordPreprocessLatency(seconds float64) {
	PreprocessLatencySeconds.Observe(seconds)
}

// RecordSkip counts one skipped query
func RecordSkip(reason string) {
	SkippedQueries.WithLabelValues(reason).Inc()
}

// SetConfigured marks the model as bound
func SetConfigured() {
	Configured.Set(1)
}

// SetUnconfigured marks the model as unbound
func SetUnconfigured() {
	Configured.Set(0)
}
