package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the login pipeline.
type Metrics struct {
	LoginOutcomes      *prometheus.CounterVec
	Lockouts           prometheus.Counter
	RateLimited        *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
	AttemptStoreSwept  prometheus.Counter
	AuditRowsPurged    prometheus.Counter
	LoginDurationMs    prometheus.Histogram
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_login_outcomes_total",
			Help: "Total number of login requests by outcome code",
		}, []string{"outcome"}),
		Lockouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_account_lockouts_total",
			Help: "Total number of identities locked after repeated failures",
		}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_rate_limited_requests_total",
			Help: "Total number of requests rejected by a rate limiter",
		}, []string{"limiter"}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_audit_write_failures_total",
			Help: "Total number of login audit rows that could not be persisted",
		}),
		AttemptStoreSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_attempt_records_swept_total",
			Help: "Total number of expired login attempt records removed by the sweeper",
		}),
		AuditRowsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_audit_rows_purged_total",
			Help: "Total number of audit rows removed by retention cleanup",
		}),
		LoginDurationMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_login_duration_ms",
			Help:    "Duration of login requests in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
	}
}

// ObserveLoginOutcome increments the outcome counter. Safe on a nil receiver.
func (m *Metrics) ObserveLoginOutcome(outcome string) {
	if m == nil {
		return
	}
	m.LoginOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncLockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

func (m *Metrics) IncRateLimited(limiter string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(limiter).Inc()
}

func (m *Metrics) IncAuditWriteFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailures.Inc()
}

func (m *Metrics) AddSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.AttemptStoreSwept.Add(float64(n))
}

func (m *Metrics) AddPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.AuditRowsPurged.Add(float64(n))
}

func (m *Metrics) ObserveLoginDuration(ms float64) {
	if m == nil {
		return
	}
	m.LoginDurationMs.Observe(ms)
}
