package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal   *prometheus.CounterVec
	AuthzDenialsTotal     *prometheus.CounterVec
	PrincipalLookupsTotal *prometheus.CounterVec
	OwnershipLookupsTotal *prometheus.CounterVec
	OwnershipCacheHits    prometheus.Counter
	OwnershipCacheMisses  prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
	DBConnectionsWait   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeep_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeep_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeep_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeep_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeep_authz_decisions_total",
				Help: "Total number of guard decisions",
			},
			[]string{"guard", "outcome"},
		),
		AuthzDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeep_authz_denials_total",
				Help: "Total number of denied requests by denial kind",
			},
			[]string{"kind"},
		),
		PrincipalLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeep_principal_lookups_total",
				Help: "Total number of session lookups",
			},
			[]string{"status"},
		),
		OwnershipLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeep_ownership_lookups_total",
				Help: "Total number of resource owner lookups",
			},
			[]string{"resource", "status"},
		),
		OwnershipCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatekeep_ownership_cache_hits_total",
				Help: "Owner lookups served from cache",
			},
		),
		OwnershipCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatekeep_ownership_cache_misses_total",
				Help: "Owner lookups that went to the database",
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatekeep_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatekeep_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWait: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatekeep_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.AuthzDecisionsTotal,
		m.AuthzDenialsTotal,
		m.PrincipalLookupsTotal,
		m.OwnershipLookupsTotal,
		m.OwnershipCacheHits,
		m.OwnershipCacheMisses,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWait,
	)

	return m
}

// RecordDecision counts a single guard outcome ("allow" or "deny")
func (m *Metrics) RecordDecision(guard, outcome string) {
	if m == nil {
		return
	}
	m.AuthzDecisionsTotal.WithLabelValues(guard, outcome).Inc()
}

// RecordDenial counts a denied request by kind
func (m *Metrics) RecordDenial(kind string) {
	if m == nil {
		return
	}
	m.AuthzDenialsTotal.WithLabelValues(kind).Inc()
}

// RecordPrincipalLookup counts a session lookup ("found", "missing", "invalid", "error")
func (m *Metrics) RecordPrincipalLookup(status string) {
	if m == nil {
		return
	}
	m.PrincipalLookupsTotal.WithLabelValues(status).Inc()
}

// RecordOwnershipLookup counts an owner lookup for a resource kind
func (m *Metrics) RecordOwnershipLookup(resource, status string) {
	if m == nil {
		return
	}
	m.OwnershipLookupsTotal.WithLabelValues(resource, status).Inc()
}

// RecordOwnershipCache counts a cache hit or miss
func (m *Metrics) RecordOwnershipCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.OwnershipCacheHits.Inc()
		return
	}
	m.OwnershipCacheMisses.Inc()
}

// RecordDBStats copies connection pool statistics into the gauges
func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWait.Set(float64(stats.WaitCount))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel prefers the mux path template so IDs don't explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			path := routeLabel(r)
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, path).Observe(float64(r.ContentLength))
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
