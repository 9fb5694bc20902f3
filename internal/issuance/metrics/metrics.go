package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts issuance outcomes.
type Metrics struct {
	issued       prometheus.Counter
	deduplicated prometheus.Counter
	failures     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		issued: f.NewCounter(prometheus.CounterOpts{
			Name: "kubecred_credentials_issued_total",
			Help: "Credentials newly created",
		}),
		deduplicated: f.NewCounter(prometheus.CounterOpts{
			Name: "kubecred_credentials_deduplicated_total",
			Help: "Issuance requests answered with an existing credential",
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kubecred_issuance_failures_total",
			Help: "Issuance requests that failed, by stage",
		}, []string{"stage"}),
	}
}

func (m *Metrics) IncIssued() {
	if m != nil {
		m.issued.Inc()
	}
}

func (m *Metrics) IncDeduplicated() {
	if m != nil {
		m.deduplicated.Inc()
	}
}

// IncFailure records a failure at stage: derive_id, lookup or persist.
func (m *Metrics) IncFailure(stage string) {
	if m != nil {
		m.failures.WithLabelValues(stage).Inc()
	}
}
