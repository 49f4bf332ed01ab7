package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the Prometheus rendition of core.Recorder. Every Metrics owns its
// registry, so several can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	UpdatesTotal  *prometheus.CounterVec
	FetchesTotal  *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Playing       prometheus.Gauge
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		UpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotifystatus_updates_total",
				Help: "Total number of status updates delivered to the sink",
			},
			[]string{"kind"},
		),
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotifystatus_fetches_total",
				Help: "Total number of canvas and lyrics fetches by outcome",
			},
			[]string{"fetcher", "outcome"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotifystatus_errors_total",
				Help: "Total number of errors",
			},
			[]string{"component", "type"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spotifystatus_fetch_duration_seconds",
				Help:    "Time spent fetching canvas and lyrics",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"fetcher"},
		),
		Playing: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spotifystatus_playing",
				Help: "1 while the player reports playback, 0 otherwise",
			},
		),
	}

	metrics.registry.MustRegister(
		metrics.UpdatesTotal,
		metrics.FetchesTotal,
		metrics.ErrorsTotal,
		metrics.FetchDuration,
		metrics.Playing,
	)

	return metrics
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordUpdate(kind string) {
	m.UpdatesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordFetch(fetcher, outcome string, duration time.Duration) {
	m.FetchesTotal.WithLabelValues(fetcher, outcome).Inc()
	m.FetchDuration.WithLabelValues(fetcher).Observe(duration.Seconds())
}

func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func (m *Metrics) SetPlaying(playing bool) {
	if playing {
		m.Playing.Set(1)
		return
	}
	m.Playing.Set(0)
}
