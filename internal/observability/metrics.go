// Package observability exposes Prometheus metrics for parsing, uploads and
// the snapshot stream.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "g1heapviz"

// Upload results.
const (
	UploadOK       = "ok"
	UploadRejected = "rejected"
	UploadFailed   = "failed"
)

// Metrics holds the collectors of one server. Each instance owns its own
// registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	SnapshotsParsed  prometheus.Counter
	LinesSkipped     prometheus.Counter
	Uploads          *prometheus.CounterVec
	StreamTicks      prometheus.Counter
	CurrentSnapshots prometheus.Gauge
	ParseDuration    prometheus.Histogram
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SnapshotsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_parsed_total",
			Help:      "Heap snapshots produced by the log parser.",
		}),
		LinesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_skipped_total",
			Help:      "Malformed region lines skipped while parsing.",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Log uploads by result.",
		}, []string{"result"}),
		StreamTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_ticks_total",
			Help:      "Ticks published on the snapshot stream.",
		}),
		CurrentSnapshots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_snapshots",
			Help:      "Snapshots held by the current result set.",
		}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing one uploaded log.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.SnapshotsParsed,
		m.LinesSkipped,
		m.Uploads,
		m.StreamTicks,
		m.CurrentSnapshots,
		m.ParseDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveParse records the outcome of one parse.
func (m *Metrics) ObserveParse(snapshots, skipped int, seconds float64) {
	m.SnapshotsParsed.Add(float64(snapshots))
	m.LinesSkipped.Add(float64(skipped))
	m.ParseDuration.Observe(seconds)
}

// ObserveUpload counts an upload with the given result.
func (m *Metrics) ObserveUpload(result string) {
	m.Uploads.WithLabelValues(result).Inc()
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape endpoint for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
