// Package telemetry exposes Prometheus metrics for the report service: HTTP
// traffic, report generation outcomes and page counts, and record-store pool
// usage.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	pageBuckets     = []float64{1, 2, 3, 4, 5, 8, 12, 20, 40}
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge

	reportsTotal     *prometheus.CounterVec
	reportDuration   *prometheus.HistogramVec
	reportPages      *prometheus.HistogramVec
	estimateMisses   *prometheus.CounterVec
	overflowPages    *prometheus.CounterVec
	reportBytesTotal *prometheus.CounterVec
}

// New creates the metric set under the given namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   durationBuckets,
		}, []string{"method", "route"}),

		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served.",
		}),

		reportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "generated_total",
			Help:      "Report generations by document kind and outcome.",
		}, []string{"kind", "outcome"}),

		reportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "generation_duration_seconds",
			Help:      "Time to lay out and serialise one report.",
			Buckets:   durationBuckets,
		}, []string{"kind"}),

		reportPages: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "pages",
			Help:      "Page count of generated reports.",
			Buckets:   pageBuckets,
		}, []string{"kind"}),

		estimateMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "estimate_misses_total",
			Help:      "Reports whose footer page total differed from the real page count.",
		}, []string{"kind"}),

		overflowPages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "overflow_pages_total",
			Help:      "Pages on which a single block ran past the bottom margin.",
		}, []string{"kind"}),

		reportBytesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "bytes_total",
			Help:      "Bytes of PDF output produced.",
		}, []string{"kind"}),
	}
}

// Generation summarises one report generation for ObserveReport.
type Generation struct {
	Kind           string
	Pages          int
	EstimatedPages int
	OverflowPages  int
	Bytes          int
	Duration       time.Duration
	Failed         bool
}

// ObserveReport records the outcome of one report generation.
func (m *Metrics) ObserveReport(g Generation) {
	if g.Failed {
		m.reportsTotal.WithLabelValues(g.Kind, "error").Inc()
		return
	}
	m.reportsTotal.WithLabelValues(g.Kind, "ok").Inc()
	m.reportDuration.WithLabelValues(g.Kind).Observe(g.Duration.Seconds())
	m.reportPages.WithLabelValues(g.Kind).Observe(float64(g.Pages))
	m.reportBytesTotal.WithLabelValues(g.Kind).Add(float64(g.Bytes))
	if g.Pages != g.EstimatedPages {
		m.estimateMisses.WithLabelValues(g.Kind).Inc()
	}
	if g.OverflowPages > 0 {
		m.overflowPages.WithLabelValues(g.Kind).Add(float64(g.OverflowPages))
	}
}

// PoolStats reports connection counts of the record-store pool.
type PoolStats func() (total, idle, acquired int32)

// RegisterPool exposes pool connection gauges sampled at scrape time.
func (m *Metrics) RegisterPool(namespace string, stats PoolStats) {
	f := promauto.With(m.registry)
	gauge := func(name, help string, pick func(total, idle, acquired int32) int32) {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(pick(stats()))
		})
	}
	gauge("total_connections", "Open record-store connections.", func(t, _, _ int32) int32 { return t })
	gauge("idle_connections", "Idle record-store connections.", func(_, i, _ int32) int32 { return i })
	gauge("acquired_connections", "Record-store connections in use.", func(_, _, a int32) int32 { return a })
}

// Middleware records request counts and latency by route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			start := time.Now()

			err := next(c)

			m.inFlight.Dec()

			// Use route pattern, not actual path, to bound label cardinality.
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			method := c.Request().Method
			m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
