package translation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request metrics
	translationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tolk_translation_requests_total",
			Help: "Total number of translation requests by serving method and status",
		},
		[]string{"method", "status"},
	)

	translationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tolk_translation_duration_seconds",
			Help:    "Duration of translation requests in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"method"},
	)

	translationTextLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tolk_translation_text_length_chars",
			Help:    "Length of translation input text in characters",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	// Cache metrics
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tolk_cache_lookups_total",
			Help: "Total number of result cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	cacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tolk_cache_writes_total",
			Help: "Total number of result cache writes by status",
		},
		[]string{"status"},
	)

	// Batch metrics
	batchRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tolk_batch_requests_total",
			Help: "Total number of batch translation requests",
		},
	)

	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tolk_batch_size",
			Help:    "Number of items submitted per batch request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	batchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tolk_batch_items_total",
			Help: "Total number of batch items by outcome",
		},
		[]string{"status"},
	)

	batchTruncationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tolk_batch_truncations_total",
			Help: "Total number of batches truncated to the parallelism cap",
		},
	)

	// Readiness metrics
	modelReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tolk_model_ready",
			Help: "Whether the model runner is reachable and warmed up (1 = ready)",
		},
	)
)

// Metric label values for request status.
const (
	statusOK                  = "ok"
	statusValidationError     = "validation_error"
	statusUnsupportedLanguage = "unsupported_language"
	statusInferenceError      = "inference_error"
)

// Metric label values for serving method. Fresh model results reuse the
// translation method constants; these cover the remaining paths.
const (
	servedFromCache = "cache"
	servedNowhere   = "none"
)

// observeRequest records the outcome of a single translation request.
func observeRequest(method, status string, duration time.Duration, textLength int) {
	translationRequestsTotal.WithLabelValues(method, status).Inc()
	translationDuration.WithLabelValues(method).Observe(duration.Seconds())
	translationTextLength.Observe(float64(textLength))
}
