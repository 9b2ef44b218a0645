package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics of the service.
type Collector struct {
	registry *prometheus.Registry

	// Artifact fetches by model and result (ok, error).
	ModelFetches *prometheus.CounterVec

	// Models currently held in memory.
	ModelsLoaded prometheus.Gauge

	// Inference latency by model.
	InferenceDuration *prometheus.HistogramVec

	// Failed predictions by endpoint and error kind.
	PredictionErrors *prometheus.CounterVec

	// Predictions served from degraded scaler parameters.
	UnscaledPredictions prometheus.Counter
}

// NewCollector creates a collector backed by its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ModelFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "awairs",
				Name:      "model_fetches_total",
				Help:      "Total number of model artifact fetches",
			},
			[]string{"model", "result"},
		),
		ModelsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "awairs",
				Name:      "models_loaded",
				Help:      "Number of models loaded into memory",
			},
		),
		InferenceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "awairs",
				Name:      "inference_duration_seconds",
				Help:      "Duration of forward inference calls",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"model"},
		),
		PredictionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "awairs",
				Name:      "prediction_errors_total",
				Help:      "Total number of failed predictions",
			},
			[]string{"endpoint", "kind"},
		),
		UnscaledPredictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "awairs",
				Name:      "unscaled_predictions_total",
				Help:      "Predictions computed without scaler parameters",
			},
		),
	}

	c.registry.MustRegister(
		c.ModelFetches,
		c.ModelsLoaded,
		c.InferenceDuration,
		c.PredictionErrors,
		c.UnscaledPredictions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
