package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the portal.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	LoginAttempts   *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	BackendErrors   *prometheus.CounterVec
}

// New creates all Prometheus metrics and registers them with the given
// registerer. Tests pass a fresh registry so suites do not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medvision_portal_request_duration_seconds",
			Help:    "HTTP request latency partitioned by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medvision_portal_login_attempts_total",
			Help: "Total login attempts partitioned by outcome",
		}, []string{"outcome"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "medvision_portal_active_sessions",
			Help: "Current number of authenticated browser sessions",
		}),
		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medvision_portal_backend_errors_total",
			Help: "Backend call failures partitioned by class",
		}, []string{"class"}),
	}
}

// RecordLogin counts a login attempt by outcome ("success", "rejected", "error").
func (m *Metrics) RecordLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// RecordBackendError counts a failed backend call ("auth", "forbidden",
// "not_found", "validation", "transport").
func (m *Metrics) RecordBackendError(class string) {
	m.BackendErrors.WithLabelValues(class).Inc()
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
