package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts auth flow outcomes. Label values are a small fixed set
// ("ok", "rejected", "degraded", "conflict", "locked", "error") to keep
// cardinality bounded.
type Metrics struct {
	Logins        *prometheus.CounterVec
	Refreshes     *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Logouts       prometheus.Counter
}

// NewMetrics registers auth counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Logins: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "qureka",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Refreshes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "qureka",
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		Registrations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "qureka",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		Logouts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "qureka",
			Subsystem: "auth",
			Name:      "logouts_total",
			Help:      "Logout requests.",
		}),
	}
}

func (m *Metrics) login(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) refresh(outcome string) {
	if m != nil {
		m.Refreshes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) register(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) logout() {
	if m != nil {
		m.Logouts.Inc()
	}
}
