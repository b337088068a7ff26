// Package metrics exposes the prometheus collectors of the scoring service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure kinds reported on PredictionsFailed.
const (
	FailureInvalidInput = "invalid_input"
	FailureEncoding     = "encoding"
	FailureInference    = "inference"
	FailureReport       = "report"
	FailureCanceled     = "canceled"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditrisk_predictions_total",
			Help: "Total number of completed predictions by verdict",
		},
		[]string{"verdict"},
	)

	PredictionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creditrisk_predictions_failed_total",
			Help: "Total number of failed predictions by failure kind",
		},
		[]string{"kind"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creditrisk_prediction_duration_seconds",
			Help:    "Duration of prediction requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"source"},
	)

	ArtifactLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "creditrisk_artifact_load_duration_seconds",
			Help: "Duration of model artifact loading in seconds",
		},
	)
)

// ObservePrediction records one completed prediction.
func ObservePrediction(source, verdict string, start time.Time) {
	PredictionsTotal.WithLabelValues(verdict).Inc()
	PredictionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// ObserveFailure records one failed prediction.
func ObserveFailure(source, kind string, start time.Time) {
	PredictionsFailed.WithLabelValues(kind).Inc()
	PredictionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
