package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the packaging pipeline.
type Metrics struct {
	registry              *prometheus.Registry
	requestsTotal         prometheus.Counter
	errorsTotal           prometheus.Counter
	uploadsTotal          prometheus.Counter
	encodeJobsTotal       *prometheus.CounterVec
	manifestsWrittenTotal prometheus.Counter
	encodeDuration        prometheus.Histogram
	activeJobs            prometheus.Gauge
}

// New creates and registers Prometheus metrics for the packager.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "packager_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "packager_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	uploadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "packager_uploads_total",
		Help: "Total number of asset uploads accepted for processing",
	})
	encodeJobsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "packager_encode_jobs_total",
		Help: "Total number of rendition encode jobs by terminal result",
	}, []string{"result"})
	manifestsWrittenTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "packager_manifests_written_total",
		Help: "Total number of master manifests written",
	})
	encodeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "packager_encode_duration_seconds",
		Help:    "Wall-clock duration of rendition encode jobs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	activeJobs := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "packager_active_jobs",
		Help: "Number of rendition encode jobs currently running",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		uploadsTotal,
		encodeJobsTotal,
		manifestsWrittenTotal,
		encodeDuration,
		activeJobs,
	)

	return &Metrics{
		registry:              registry,
		requestsTotal:         requestsTotal,
		errorsTotal:           errorsTotal,
		uploadsTotal:          uploadsTotal,
		encodeJobsTotal:       encodeJobsTotal,
		manifestsWrittenTotal: manifestsWrittenTotal,
		encodeDuration:        encodeDuration,
		activeJobs:            activeJobs,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncUploads increments the accepted uploads counter.
func (m *Metrics) IncUploads() {
	m.uploadsTotal.Inc()
}

// JobStarted marks one encode job as running.
func (m *Metrics) JobStarted() {
	m.activeJobs.Inc()
}

// JobFinished records one encode job's terminal result ("succeeded" or
// "failed") and its duration, and marks it no longer running.
func (m *Metrics) JobFinished(result string, d time.Duration) {
	m.activeJobs.Dec()
	m.encodeJobsTotal.WithLabelValues(result).Inc()
	m.encodeDuration.Observe(d.Seconds())
}

// IncManifestsWritten increments the written manifests counter.
func (m *Metrics) IncManifestsWritten() {
	m.manifestsWrittenTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
