// Package metrics exposes import and tagging counters in Prometheus format.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rostertagger"

type Metrics struct {
	registry *prometheus.Registry

	imagesImported    prometheus.Counter
	duplicatesSkipped prometheus.Counter
	profilesCreated   prometheus.Counter
	parseFailures     prometheus.Counter
	tagsWritten       *prometheus.CounterVec
	tagFailures       prometheus.Counter
	mockFallbacks     prometheus.Counter
	batchDuration     prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		imagesImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "import", Name: "images_total",
			Help: "Images inserted by folder imports.",
		}),
		duplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "import", Name: "duplicates_total",
			Help: "Scanned files skipped because their path was already imported.",
		}),
		profilesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "import", Name: "profiles_created_total",
			Help: "Profiles created on first sighting of a username.",
		}),
		parseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scan", Name: "parse_failures_total",
			Help: "Files whose name did not yield a username.",
		}),
		tagsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tagging", Name: "tags_written_total",
			Help: "Tag rows written, by source.",
		}, []string{"source"}),
		tagFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tagging", Name: "failures_total",
			Help: "Images a batch could not tag.",
		}),
		mockFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tagging", Name: "mock_fallbacks_total",
			Help: "Remote tagging calls replaced by mock output after retries.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "tagging", Name: "batch_duration_seconds",
			Help:    "Wall time of tagging batches.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.imagesImported, m.duplicatesSkipped, m.profilesCreated, m.parseFailures,
		m.tagsWritten, m.tagFailures, m.mockFallbacks, m.batchDuration,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ImageImported() {
	if m != nil {
		m.imagesImported.Inc()
	}
}

func (m *Metrics) DuplicateSkipped() {
	if m != nil {
		m.duplicatesSkipped.Inc()
	}
}

func (m *Metrics) ProfileCreated() {
	if m != nil {
		m.profilesCreated.Inc()
	}
}

func (m *Metrics) ParseFailures(n int) {
	if m != nil && n > 0 {
		m.parseFailures.Add(float64(n))
	}
}

func (m *Metrics) TagWritten(source string) {
	if m != nil {
		m.tagsWritten.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) TagFailed() {
	if m != nil {
		m.tagFailures.Inc()
	}
}

func (m *Metrics) MockFallback() {
	if m != nil {
		m.mockFallbacks.Inc()
	}
}

func (m *Metrics) BatchFinished(d time.Duration) {
	if m != nil {
		m.batchDuration.Observe(d.Seconds())
	}
}
