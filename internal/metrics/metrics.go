// Package metrics exposes build and media counters in the Prometheus
// format. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inkwell"

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	documentsBuilt  prometheus.Counter
	documentsFailed prometheus.Counter
	mediaResolved   *prometheus.CounterVec
	buildDuration   prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		documentsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_built_total",
			Help:      "Documents rendered and written to the public root.",
		}),
		documentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_failed_total",
			Help:      "Documents whose build returned an error.",
		}),
		mediaResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_resolved_total",
			Help:      "Media resolutions by outcome (copied, skipped, missing).",
		}, []string{"outcome"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of full site builds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.documentsBuilt, m.documentsFailed, m.mediaResolved, m.buildDuration)
	return m
}

// Media outcomes.
const (
	MediaCopied  = "copied"
	MediaSkipped = "skipped"
	MediaMissing = "missing"
)

// DocumentBuilt counts one document build.
func (m *Metrics) DocumentBuilt(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.documentsFailed.Inc()
		return
	}
	m.documentsBuilt.Inc()
}

// MediaResolved counts one media resolution with the given outcome.
func (m *Metrics) MediaResolved(outcome string) {
	if m == nil {
		return
	}
	m.mediaResolved.WithLabelValues(outcome).Inc()
}

// BuildFinished observes the duration of a build that started at start.
func (m *Metrics) BuildFinished(start time.Time) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(time.Since(start).Seconds())
}

// LiveClients exports count as the number of connected live-reload clients.
// It may be called once per Metrics.
func (m *Metrics) LiveClients(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_clients",
		Help:      "Connected live-reload event streams.",
	}, func() float64 { return float64(count()) }))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
