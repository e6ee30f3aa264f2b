package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the portal. A nil *Metrics is
// valid everywhere; every method no-ops so tests can skip registration.
type Metrics struct {
	UsersRegistered      prometheus.Counter
	ApplicationsCreated  prometheus.Counter
	ApplicationsApproved prometheus.Counter
	ApplicationsRejected prometheus.Counter
	PaymentsInitialized  prometheus.Counter
	PaymentsVerified     *prometheus.CounterVec
	GatewayRequests      *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soo_portal_users_registered_total",
			Help: "Total number of citizens registered",
		}),
		ApplicationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soo_portal_applications_created_total",
			Help: "Total number of certificate applications created",
		}),
		ApplicationsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soo_portal_applications_approved_total",
			Help: "Total number of applications approved by an admin",
		}),
		ApplicationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soo_portal_applications_rejected_total",
			Help: "Total number of applications rejected by an admin",
		}),
		PaymentsInitialized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "soo_portal_payments_initialized_total",
			Help: "Total number of payment transactions initialized",
		}),
		PaymentsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "soo_portal_payments_verified_total",
			Help: "Payment verifications by result",
		}, []string{"result"}),
		GatewayRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "soo_portal_gateway_requests_total",
			Help: "Calls to the payment gateway by operation and outcome",
		}, []string{"operation", "outcome"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "soo_portal_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncUsersRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}

func (m *Metrics) IncApplicationsCreated() {
	if m != nil {
		m.ApplicationsCreated.Inc()
	}
}

func (m *Metrics) IncApplicationsApproved() {
	if m != nil {
		m.ApplicationsApproved.Inc()
	}
}

func (m *Metrics) IncApplicationsRejected() {
	if m != nil {
		m.ApplicationsRejected.Inc()
	}
}

func (m *Metrics) IncPaymentsInitialized() {
	if m != nil {
		m.PaymentsInitialized.Inc()
	}
}

func (m *Metrics) IncPaymentsVerified(result string) {
	if m != nil {
		m.PaymentsVerified.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncGatewayRequests(operation, outcome string) {
	if m != nil {
		m.GatewayRequests.WithLabelValues(operation, outcome).Inc()
	}
}

func (m *Metrics) ObserveRequestDuration(route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
	}
}
