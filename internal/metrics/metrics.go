// Package metrics exposes Prometheus instrumentation for analysis runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"perfpulse/domain/insight"
)

// Collector records analysis run metrics on its own registry
type Collector struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	droppedRecords  *prometheus.CounterVec
	acceptedEvents  prometheus.Counter
	findings        *prometheus.GaugeVec
	activeAnalyses  prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewCollector creates a collector with a fresh registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfpulse_analysis_runs_total",
				Help: "Analysis runs by outcome",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "perfpulse_analysis_duration_seconds",
				Help:    "Wall time of one analysis run including source fetches",
				Buckets: prometheus.DefBuckets,
			},
		),
		droppedRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfpulse_normalization_dropped_total",
				Help: "Records dropped at the normalization boundary by reason",
			},
			[]string{"reason"},
		),
		acceptedEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "perfpulse_normalization_events_accepted_total",
				Help: "Events accepted into the metric grid",
			},
		),
		findings: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "perfpulse_last_run_findings",
				Help: "Number of findings of each kind in the most recent run",
			},
			[]string{"kind"},
		),
		activeAnalyses: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "perfpulse_active_analyses",
				Help: "Analyses currently running",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfpulse_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perfpulse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordRun records a finished analysis
func (c *Collector) RecordRun(report insight.Report, elapsed time.Duration) {
	c.runsTotal.WithLabelValues("ok").Inc()
	c.runDuration.Observe(elapsed.Seconds())
	c.acceptedEvents.Add(float64(report.Normalization.EventsAccepted))
	for reason, n := range report.Normalization.Dropped {
		c.droppedRecords.WithLabelValues(reason).Add(float64(n))
	}
	c.findings.WithLabelValues("correlations").Set(float64(len(report.Correlations)))
	c.findings.WithLabelValues("patterns").Set(float64(len(report.Patterns)))
	c.findings.WithLabelValues("segments").Set(float64(len(report.Segments)))
	c.findings.WithLabelValues("causal_links").Set(float64(len(report.CausalLinks)))
}

// RecordFailure records a run that failed before producing a report
func (c *Collector) RecordFailure(elapsed time.Duration) {
	c.runsTotal.WithLabelValues("error").Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

// Track marks an analysis as active until the returned func is called
func (c *Collector) Track() func() {
	c.activeAnalyses.Inc()
	return c.activeAnalyses.Dec
}

// ObserveRequest records one HTTP request
func (c *Collector) ObserveRequest(route, status string, elapsed time.Duration) {
	c.requestsTotal.WithLabelValues(route, status).Inc()
	c.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
