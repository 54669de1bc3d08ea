package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nala"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors of one machine. Each Metrics owns its
// registry so several machines (and tests) do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	exports        *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	elements       prometheus.Gauge
	revision       prometheus.Gauge
}

// NewMetrics creates and registers the collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Decks exported, by simulation code and result.",
			},
			[]string{"code", "result"},
		),
		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_duration_seconds",
				Help:      "Time spent translating a target into a deck.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"code"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deck_cache_hits_total",
				Help:      "Exports served from the deck store.",
			},
			[]string{"code"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_reloads_total",
				Help:      "Machine model reloads, by result.",
			},
			[]string{"result"},
		),
		elements: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_elements",
			Help:      "Elements in the loaded machine model.",
		}),
		revision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_revision",
			Help:      "Revision of the loaded machine model.",
		}),
	}
	m.Registry.MustRegister(
		m.exports,
		m.exportDuration,
		m.cacheHits,
		m.reloads,
		m.elements,
		m.revision,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveExport records one translation that started at start.
func (m *Metrics) ObserveExport(code string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(code, result(err)).Inc()
	if err == nil {
		m.exportDuration.WithLabelValues(code).Observe(time.Since(start).Seconds())
	}
}

// CacheHit records an export served from the deck store.
func (m *Metrics) CacheHit(code string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(code).Inc()
}

// ObserveReload records a model (re)load.
func (m *Metrics) ObserveReload(revision uint64, elements int, err error) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.elements.Set(float64(elements))
		m.revision.Set(float64(revision))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
