// Package metrics records Prometheus metrics for dataset runs, variations,
// exports and the HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mhpenta/datasetgen"
)

// Collector holds the service's metric vectors. It implements
// datasetgen.Recorder.
type Collector struct {
	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Outbound image calls
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	imagesGenerated    prometheus.Counter
	variationsTotal    *prometheus.CounterVec
	variationDuration  *prometheus.HistogramVec

	// Export
	exportsTotal *prometheus.CounterVec

	registry *prometheus.Registry
	logger   *zap.Logger
}

var _ datasetgen.Recorder = (*Collector)(nil)

// NewCollector registers the metrics under namespace in registry. A nil
// registry gets a fresh one.
func NewCollector(namespace string, registry *prometheus.Registry, logger *zap.Logger) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	factory := promauto.With(registry)
	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.generationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of image generation calls",
		},
		[]string{"status"},
	)

	c.generationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Image generation call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"status"},
	)

	c.imagesGenerated = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_generated_total",
			Help:      "Total number of images returned by the generation service",
		},
	)

	c.variationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variation_requests_total",
			Help:      "Total number of variation calls",
		},
		[]string{"status"},
	)

	c.variationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "variation_duration_seconds",
			Help:      "Variation call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"status"},
	)

	c.exportsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_images_total",
			Help:      "Total number of exported images",
		},
		[]string{"status"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordGeneration records one call to the image generation service.
func (c *Collector) RecordGeneration(status string, duration time.Duration, images int) {
	c.generationsTotal.WithLabelValues(status).Inc()
	c.generationDuration.WithLabelValues(status).Observe(duration.Seconds())
	if images > 0 {
		c.imagesGenerated.Add(float64(images))
	}
}

// RecordVariation records one call to the variation service.
func (c *Collector) RecordVariation(status string, duration time.Duration) {
	c.variationsTotal.WithLabelValues(status).Inc()
	c.variationDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordExport counts exported images by outcome.
func (c *Collector) RecordExport(status string, n int) {
	c.exportsTotal.WithLabelValues(status).Add(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// statusCode buckets an HTTP status code.
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
