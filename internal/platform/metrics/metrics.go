// File: internal/platform/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and CLI commands can build as many as they like.
// Every method is safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	cacheLookupsTotal  *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	httpInflight       prometheus.Gauge
	sessionEventsTotal *prometheus.CounterVec
}

// New creates and registers the dashboard collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_api_requests_total",
			Help: "Requests sent to the remote REST backend",
		}, []string{"method", "route", "status"}),
		apiRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_api_request_duration_seconds",
			Help:    "Latency of requests sent to the remote REST backend",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_list_cache_lookups_total",
			Help: "List cache lookups by collection and result",
		}, []string{"collection", "result"}), // result: hit|miss|invalidate
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Requests served by the dashboard",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of requests served by the dashboard",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests currently being served",
		}),
		sessionEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_session_events_total",
			Help: "Session lifecycle events",
		}, []string{"event"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequestsTotal,
		m.apiRequestDuration,
		m.cacheLookupsTotal,
		m.httpRequestsTotal,
		m.httpDuration,
		m.httpInflight,
		m.sessionEventsTotal,
	)
	return m
}

// Handler exposes the registry for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAPI records one round trip to the backend. status 0 means a transport error.
func (m *Metrics) ObserveAPI(method, path string, status int, took time.Duration) {
	if m == nil {
		return
	}
	route := Route(path)
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequestsTotal.WithLabelValues(method, route, label).Inc()
	m.apiRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// CacheHit, CacheMiss and CacheInvalidate count list cache activity per collection.
func (m *Metrics) CacheHit(collection string)        { m.cache(collection, "hit") }
func (m *Metrics) CacheMiss(collection string)       { m.cache(collection, "miss") }
func (m *Metrics) CacheInvalidate(collection string) { m.cache(collection, "invalidate") }

func (m *Metrics) cache(collection, result string) {
	if m == nil {
		return
	}
	m.cacheLookupsTotal.WithLabelValues(collection, result).Inc()
}

// SessionEvent counts sign-in, sign-out, expiry and restore events.
func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessionEventsTotal.WithLabelValues(event).Inc()
}

// TrackHTTP records a served request and returns the function that completes it.
func (m *Metrics) TrackHTTP(method, path string) func(status int) {
	if m == nil {
		return func(int) {}
	}
	start := time.Now()
	m.httpInflight.Inc()
	return func(status int) {
		m.httpInflight.Dec()
		m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Route reduces a backend path to its first segment so record ids stay out of label values.
// "/donorRequest/65ab" becomes "/donorRequest"; "/donors/role/a@b.c" becomes "/donors/role".
func Route(path string) string {
	path = strings.SplitN(path, "?", 2)[0]
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "/"
	}
	if len(parts) > 1 && parts[0] == "donors" && (parts[1] == "role" || parts[1] == "status") {
		return "/" + parts[0] + "/" + parts[1]
	}
	return "/" + parts[0]
}
