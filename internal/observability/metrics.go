package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by API and worker flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDuration         *prometheus.HistogramVec
	medicionesSubmittedTotal    *prometheus.CounterVec
	medicionesRejectedTotal     *prometheus.CounterVec
	lotesFinalizedTotal         *prometheus.CounterVec
	certificateAssemblyDuration prometheus.Histogram
	scannerRequeuedTotal        prometheus.Counter
	workerInflight              prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "certify_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "certify_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		medicionesSubmittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "certify_engine",
				Name:      "mediciones_submitted_total",
				Help:      "Total number of accepted measurement submissions by compliance outcome.",
			},
			[]string{"cumple"},
		),
		medicionesRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "certify_engine",
				Name:      "mediciones_rejected_total",
				Help:      "Total number of rejected measurement submissions by reason.",
			},
			[]string{"reason"},
		),
		lotesFinalizedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "certify_engine",
				Name:      "lotes_finalized_total",
				Help:      "Total number of lotes that reached a final estado by resultado.",
			},
			[]string{"resultado"},
		),
		certificateAssemblyDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "certify_engine",
				Name:      "certificate_assembly_duration_seconds",
				Help:      "Certificate assembly duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		scannerRequeuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "certify_engine",
				Name:      "scanner_requeued_total",
				Help:      "Total number of finalized lotes requeued by the reconciliation scanner.",
			},
		),
		workerInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "certify_engine",
				Name:      "worker_inflight",
				Help:      "Current number of in-flight certificate assembly operations.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.medicionesSubmittedTotal,
		m.medicionesRejectedTotal,
		m.lotesFinalizedTotal,
		m.certificateAssemblyDuration,
		m.scannerRequeuedTotal,
		m.workerInflight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncMedicionSubmitted(cumpleEstandar bool) {
	if m == nil {
		return
	}
	m.medicionesSubmittedTotal.WithLabelValues(strconv.FormatBool(cumpleEstandar)).Inc()
}

func (m *Metrics) IncMedicionRejected(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.medicionesRejectedTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) IncLoteFinalized(resultado string) {
	if m == nil {
		return
	}
	resultadoLabel := strings.TrimSpace(strings.ToLower(resultado))
	if resultadoLabel == "" {
		resultadoLabel = "unknown"
	}
	m.lotesFinalizedTotal.WithLabelValues(resultadoLabel).Inc()
}

func (m *Metrics) ObserveCertificateAssemblyDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.certificateAssemblyDuration.Observe(seconds)
}

func (m *Metrics) IncScannerRequeued() {
	if m == nil {
		return
	}
	m.scannerRequeuedTotal.Inc()
}

func (m *Metrics) IncWorkerInFlight() {
	if m == nil {
		return
	}
	m.workerInflight.Inc()
}

func (m *Metrics) DecWorkerInFlight() {
	if m == nil {
		return
	}
	m.workerInflight.Dec()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
