package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "releaseboard"

// Metrics implements every hook interface on top of a private Prometheus
// registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal     *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	versions       *prometheus.GaugeVec
	renderDuration *prometheus.HistogramVec
	renderBytes    *prometheus.HistogramVec
	cacheEvents    *prometheus.CounterVec
	cacheBytes     prometheus.Histogram
	cacheErrors    *prometheus.CounterVec
	upstreamTotal  *prometheus.CounterVec
	upstreamTime   *prometheus.HistogramVec
	upstreamErrors *prometheus.CounterVec
	httpTotal      *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpActive     prometheus.Gauge
}

// NewMetrics creates and registers all collectors, including the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Version listings per project, by outcome.",
		}, []string{"project", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time to list all pages of one project.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"project"}),
		versions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unreleased_versions",
			Help:      "Unreleased versions found at the last successful fetch.",
		}, []string{"project"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to render one response body.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"format"}),
		renderBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_bytes",
			Help:      "Size of rendered bodies.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"format"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Response cache lookups and writes, by format and result.",
		}, []string{"format", "result"}),
		cacheBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_entry_bytes",
			Help:      "Size of stored cache entries.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Failed cache operations.",
		}, []string{"op"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API responses, by host and status code.",
		}, []string{"host", "code"}),
		upstreamTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Upstream requests that produced no response.",
		}, []string{"host"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of served HTTP requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		httpActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "In-flight HTTP requests.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fetchTotal, m.fetchDuration, m.versions,
		m.renderDuration, m.renderBytes,
		m.cacheEvents, m.cacheBytes, m.cacheErrors,
		m.upstreamTotal, m.upstreamTime, m.upstreamErrors,
		m.httpTotal, m.httpDuration, m.httpActive,
	)
	return m
}

// Install registers m as the pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	if m == nil {
		return
	}
	SetPipelineHooks(m)
	SetCacheHooks(m)
	SetHTTPHooks(m)
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OnFetchStart implements PipelineHooks.
func (m *Metrics) OnFetchStart(context.Context, string) {}

// OnFetchComplete implements PipelineHooks.
func (m *Metrics) OnFetchComplete(_ context.Context, project string, versions int, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		m.versions.WithLabelValues(project).Set(float64(versions))
	}
	m.fetchTotal.WithLabelValues(project, outcome).Inc()
	m.fetchDuration.WithLabelValues(project).Observe(d.Seconds())
}

// OnRenderStart implements PipelineHooks.
func (m *Metrics) OnRenderStart(context.Context, string) {}

// OnRenderComplete implements PipelineHooks.
func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if m == nil || err != nil {
		return
	}
	m.renderDuration.WithLabelValues(format).Observe(d.Seconds())
	m.renderBytes.WithLabelValues(format).Observe(float64(size))
}

// OnCacheHit implements CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, format string) {
	if m != nil {
		m.cacheEvents.WithLabelValues(format, "hit").Inc()
	}
}

// OnCacheStale implements CacheHooks.
func (m *Metrics) OnCacheStale(_ context.Context, format string) {
	if m != nil {
		m.cacheEvents.WithLabelValues(format, "stale").Inc()
	}
}

// OnCacheMiss implements CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, format string) {
	if m != nil {
		m.cacheEvents.WithLabelValues(format, "miss").Inc()
	}
}

// OnCacheSet implements CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, format string, size int) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(format, "set").Inc()
	m.cacheBytes.Observe(float64(size))
}

// OnCacheError implements CacheHooks.
func (m *Metrics) OnCacheError(_ context.Context, op string, _ error) {
	if m != nil {
		m.cacheErrors.WithLabelValues(op).Inc()
	}
}

// OnRequest implements HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string, string) {}

// OnResponse implements HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(host, strconv.Itoa(code)).Inc()
	m.upstreamTime.WithLabelValues(host).Observe(d.Seconds())
}

// OnError implements HTTPHooks.
func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	if m != nil {
		m.upstreamErrors.WithLabelValues(host).Inc()
	}
}

// RequestStarted marks one served request as in flight.
func (m *Metrics) RequestStarted() {
	if m != nil {
		m.httpActive.Inc()
	}
}

// RequestFinished records one served request. Route should be the router
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) RequestFinished(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpActive.Dec()
	m.httpTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ HTTPHooks     = (*Metrics)(nil)
)
