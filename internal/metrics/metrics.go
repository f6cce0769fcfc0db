// Package metrics exposes Prometheus instrumentation for shortlistd:
// request counts and latency, per-stage pipeline durations, in-flight
// runs, and match quality outcomes. Everything registers on a private
// registry so multiple instances can coexist in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request status label values.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Metrics holds the service collectors. A nil *Metrics is valid and
// records nothing, so callers never need to guard.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StageDuration   *prometheus.HistogramVec
	StageFailures   *prometheus.CounterVec
	RunsInFlight    prometheus.Gauge
	MatchQuality    *prometheus.CounterVec
}

// New builds and registers the service collectors on a fresh registry,
// alongside the standard Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlist_requests_total",
				Help: "Shortlist requests by endpoint and terminal status.",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shortlist_request_duration_seconds",
				Help:    "End-to-end shortlist request duration in seconds.",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"endpoint"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shortlist_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds.",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"stage"},
		),
		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlist_stage_failures_total",
				Help: "Terminal pipeline stage failures by stage.",
			},
			[]string{"stage"},
		),
		RunsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shortlist_runs_in_flight",
				Help: "Pipeline runs currently executing.",
			},
		),
		MatchQuality: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortlist_match_quality_total",
				Help: "Completed runs by match quality.",
			},
			[]string{"quality"},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.StageDuration,
		m.StageFailures,
		m.RunsInFlight,
		m.MatchQuality,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(endpoint, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// ObserveStage records one completed pipeline stage.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// StageFailed counts a terminal stage failure.
func (m *Metrics) StageFailed(stage string) {
	if m == nil {
		return
	}
	m.StageFailures.WithLabelValues(stage).Inc()
}

// RunStarted marks a pipeline run as in flight.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsInFlight.Inc()
}

// RunFinished marks a pipeline run as done.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.RunsInFlight.Dec()
}

// RecordQuality counts a completed run's match quality.
func (m *Metrics) RecordQuality(quality string) {
	if m == nil {
		return
	}
	m.MatchQuality.WithLabelValues(quality).Inc()
}
