// Package metrics provides Prometheus metrics for the extraction service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Job metrics
	JobsTotal    *prometheus.CounterVec
	JobsInFlight prometheus.Gauge
	QueueDepth   prometheus.Gauge
	ParseSeconds *prometheus.HistogramVec

	// Range metrics
	RangesTotal         *prometheus.CounterVec
	RangeSeconds        prometheus.Histogram
	MediaPartsRelocated prometheus.Counter
	MediaBytesRelocated prometheus.Counter
	CommentsFlattened   prometheus.Counter

	// RangeLatency backs the stats endpoint.
	RangeLatency *Latency

	gatherer prometheus.Gatherer
}

// New creates the metrics and registers them with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{gatherer: reg, RangeLatency: NewLatency(time.Hour)}

	m.JobsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrange_jobs_total",
			Help: "Total number of extraction jobs by final status",
		},
		[]string{"status"},
	)
	m.JobsInFlight = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "docrange_jobs_in_flight",
			Help: "Number of jobs currently being processed",
		},
	)
	m.QueueDepth = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "docrange_queue_depth",
			Help: "Number of jobs waiting for a worker",
		},
	)
	m.ParseSeconds = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docrange_parse_duration_seconds",
			Help:    "Time spent importing a template, by file extension",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	m.RangesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docrange_ranges_total",
			Help: "Total number of range extractions by outcome",
		},
		[]string{"status"},
	)
	m.RangeSeconds = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docrange_range_duration_seconds",
			Help:    "Duration of a single range extraction",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
	)
	m.MediaPartsRelocated = f.NewCounter(
		prometheus.CounterOpts{
			Name: "docrange_media_parts_relocated_total",
			Help: "Media parts copied into extracted sub-documents",
		},
	)
	m.MediaBytesRelocated = f.NewCounter(
		prometheus.CounterOpts{
			Name: "docrange_media_bytes_relocated_total",
			Help: "Media bytes copied into extracted sub-documents",
		},
	)
	m.CommentsFlattened = f.NewCounter(
		prometheus.CounterOpts{
			Name: "docrange_comments_flattened_total",
			Help: "Nested comment records attached to extracted ranges",
		},
	)

	return m
}

// RecordRange records one range extraction.
func (m *Metrics) RecordRange(status string, duration time.Duration) {
	m.RangesTotal.WithLabelValues(status).Inc()
	m.RangeSeconds.Observe(duration.Seconds())
	m.RangeLatency.Record(duration)
}

// RecordMedia records relocated parts and their total size.
func (m *Metrics) RecordMedia(parts int, bytes int64) {
	m.MediaPartsRelocated.Add(float64(parts))
	m.MediaBytesRelocated.Add(float64(bytes))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
