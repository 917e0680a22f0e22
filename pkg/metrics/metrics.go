// Package metrics exposes Prometheus instrumentation for the bot. Collectors
// live on a private registry so tests can build independent instances.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search and download outcomes used as label values.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeTooLarge = "too_large"
	OutcomeCooldown = "cooldown"
)

// Metrics groups the bot's collectors.
type Metrics struct {
	Searches         *prometheus.CounterVec
	Downloads        *prometheus.CounterVec
	DownloadDuration prometheus.Histogram
	ActiveDownloads  prometheus.Gauge
	Updates          *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers the collectors together with the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musicbot",
			Name:      "searches_total",
			Help:      "Catalog searches by outcome.",
		}, []string{"outcome"}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musicbot",
			Name:      "downloads_total",
			Help:      "Track downloads by outcome.",
		}, []string{"outcome"}),
		DownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "musicbot",
			Name:      "download_duration_seconds",
			Help:      "Time spent running the download tool.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		}),
		ActiveDownloads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "musicbot",
			Name:      "downloads_in_flight",
			Help:      "Downloads currently running.",
		}),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musicbot",
			Name:      "updates_total",
			Help:      "Telegram updates handled by kind.",
		}, []string{"kind"}),
		registry: reg,
	}
	reg.MustRegister(
		m.Searches, m.Downloads, m.DownloadDuration, m.ActiveDownloads, m.Updates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Search counts a catalog search.
func (m *Metrics) Search(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}

// Update counts a handled Telegram update.
func (m *Metrics) Update(kind string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(kind).Inc()
}

// StartDownload marks a download as running. The returned function records
// its outcome and duration and must be called exactly once.
func (m *Metrics) StartDownload() func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.ActiveDownloads.Inc()
	return func(outcome string) {
		m.ActiveDownloads.Dec()
		m.DownloadDuration.Observe(time.Since(start).Seconds())
		m.Downloads.WithLabelValues(outcome).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Throttled counts a download refused by the per-chat cooldown.
func (m *Metrics) Throttled() {
	if m == nil {
		return
	}
	m.Downloads.WithLabelValues(OutcomeCooldown).Inc()
}
