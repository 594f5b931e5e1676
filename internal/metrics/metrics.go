// Package metrics exposes prometheus collectors for the overlay pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Overlay holds the overlay collectors. A nil *Overlay is valid and records
// nothing, so components can take one unconditionally.
type Overlay struct {
	Transitions   *prometheus.CounterVec
	Presentations *prometheus.CounterVec
	BlurDuration  *prometheus.HistogramVec
	StaleResults  *prometheus.CounterVec
	Visible       prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors on a private registry, alongside the Go runtime
// and process collectors.
func New() *Overlay {
	reg := prometheus.NewRegistry()
	m := &Overlay{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "privacyblur_transitions_total",
				Help: "Overlay state transitions",
			},
			[]string{"event", "from", "to"},
		),
		Presentations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "privacyblur_presentations_total",
				Help: "Overlays presented, by content kind and reason",
			},
			[]string{"kind", "reason"},
		),
		BlurDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "privacyblur_blur_duration_seconds",
				Help:    "Time spent blurring a captured frame",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"strategy"},
		),
		StaleResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "privacyblur_stale_results_total",
				Help: "Asynchronous results dropped because a newer transition superseded them",
			},
			[]string{"kind"},
		),
		Visible: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "privacyblur_overlay_visible",
				Help: "1 while an overlay surface is attached",
			},
		),
		registry: reg,
	}
	reg.MustRegister(
		m.Transitions,
		m.Presentations,
		m.BlurDuration,
		m.StaleResults,
		m.Visible,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Overlay) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Overlay) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Overlay) ObserveTransition(event, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(event, from, to).Inc()
}

func (m *Overlay) ObservePresentation(kind, reason string) {
	if m == nil {
		return
	}
	m.Presentations.WithLabelValues(kind, reason).Inc()
}

func (m *Overlay) ObserveBlur(strategy string, d time.Duration) {
	if m == nil {
		return
	}
	m.BlurDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (m *Overlay) ObserveStale(kind string) {
	if m == nil {
		return
	}
	m.StaleResults.WithLabelValues(kind).Inc()
}

func (m *Overlay) SetVisible(visible bool) {
	if m == nil {
		return
	}
	if visible {
		m.Visible.Set(1)
	} else {
		m.Visible.Set(0)
	}
}
