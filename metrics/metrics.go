// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridecancel_predictions_total",
		Help: "Predictions served, by entry point and predicted label.",
	}, []string{"source", "label"})

	PredictionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridecancel_prediction_failures_total",
		Help: "Failed predictions, by error kind.",
	}, []string{"kind"})

	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ridecancel_prediction_duration_seconds",
		Help:    "Time to reconcile and score one payload.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ridecancel_cache_hits_total",
		Help: "Predictions answered from the Redis cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ridecancel_cache_misses_total",
		Help: "Predictions that had to be scored.",
	})

	ModelLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridecancel_model_loads_total",
		Help: "Model artifact load attempts, by result.",
	}, []string{"result"})

	TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ridecancel_training_duration_seconds",
		Help:    "Wall time of a training run.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	ScorerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridecancel_scorer_messages_total",
		Help: "Booking requests consumed from MQTT, by result.",
	}, []string{"result"})

	BatchRowsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ridecancel_batch_rows_scored_total",
		Help: "Pending bookings scored by the batch scorer.",
	})

	BatchCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ridecancel_batch_cycle_duration_seconds",
		Help:    "Duration of a full batch scoring cycle.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	})
)
