package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the workspace core
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionRestoresTotal *prometheus.CounterVec
	SignInsTotal         *prometheus.CounterVec
	SignOutsTotal        prometheus.Counter
	StaleResolvesDropped prometheus.Counter

	// Provisioning metrics
	ProvisioningStepsTotal *prometheus.CounterVec

	// Billing metrics
	ActivationsTotal           *prometheus.CounterVec
	PaymentRecordFailuresTotal prometheus.Counter
	SubscriptionsLapsedTotal   prometheus.Counter

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workspace_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SessionRestoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_session_restores_total",
				Help: "Session restore attempts by outcome",
			},
			[]string{"outcome"},
		),
		SignInsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_sign_ins_total",
				Help: "Sign-in attempts by outcome",
			},
			[]string{"outcome"},
		),
		SignOutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_sign_outs_total",
				Help: "Total number of sign-outs",
			},
		),
		StaleResolvesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_stale_resolves_dropped_total",
				Help: "Organization resolutions discarded because the session changed mid-flight",
			},
		),
		ProvisioningStepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_provisioning_steps_total",
				Help: "Provisioning step executions by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		ActivationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_subscription_activations_total",
				Help: "Subscription activation attempts by outcome",
			},
			[]string{"outcome"},
		),
		PaymentRecordFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_payment_record_failures_total",
				Help: "Payment record appends that failed after the organization update committed",
			},
		),
		SubscriptionsLapsedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "workspace_subscriptions_lapsed_total",
				Help: "Organizations deactivated by the lapse sweep",
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_cache_hits_total",
				Help: "Cache hits by cache layer",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_cache_misses_total",
				Help: "Cache misses by cache layer",
			},
			[]string{"cache"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "workspace_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "workspace_db_connections_idle",
				Help: "Idle database connections",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SessionRestoresTotal,
		m.SignInsTotal,
		m.SignOutsTotal,
		m.StaleResolvesDropped,
		m.ProvisioningStepsTotal,
		m.ActivationsTotal,
		m.PaymentRecordFailuresTotal,
		m.SubscriptionsLapsedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// InstrumentHandler wraps an HTTP handler with request count and duration
// metrics. path should be the route template, not the raw URL, to keep
// cardinality bounded.
func (m *Metrics) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
