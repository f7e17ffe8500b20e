// Package metrics exposes scan and HTTP metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pennyscan"

// Recorder records scan and HTTP metrics on its own registry
// ⭐ SSOT: metric names are declared here only
type Recorder struct {
	registry *prometheus.Registry

	scansTotal     *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	lastMatches    prometheus.Gauge
	lastScanTime   prometheus.Gauge
	symbolErrors   prometheus.Counter
	notifyFailures prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates a recorder with Go and process collectors registered
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Scan invocations by terminal outcome",
			},
			[]string{"outcome"},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Wall-clock duration of completed scans",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		lastMatches: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_scan_matches",
				Help:      "Number of matches in the most recent completed scan",
			},
		),
		lastScanTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_scan_timestamp_seconds",
				Help:      "Unix time of the most recent completed scan",
			},
		),
		symbolErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "symbol_fetch_errors_total",
				Help:      "Symbols skipped because of transport or data errors",
			},
		),
		notifyFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notify_failures_total",
				Help:      "Reports that could not be delivered",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"route", "method"},
		),
	}
}

// RecordScan records the outcome of one invocation
func (r *Recorder) RecordScan(outcome string, duration time.Duration, matches int, completed bool) {
	r.scansTotal.WithLabelValues(outcome).Inc()
	if !completed {
		return
	}
	r.scanDuration.Observe(duration.Seconds())
	r.lastMatches.Set(float64(matches))
	r.lastScanTime.SetToCurrentTime()
}

// RecordSymbolErrors adds n skipped symbols
func (r *Recorder) RecordSymbolErrors(n int) {
	r.symbolErrors.Add(float64(n))
}

// RecordNotifyFailure counts one undelivered report
func (r *Recorder) RecordNotifyFailure() {
	r.notifyFailures.Inc()
}

// RecordHTTPRequest records one served request
func (r *Recorder) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
