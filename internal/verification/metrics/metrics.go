package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers verification outcomes and calls to the issuance service.
type Metrics struct {
	results          *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	circuitOpenTotal prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		results: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kubecred_verifications_total",
			Help: "Verifications by result and reason",
		}, []string{"result", "reason"}),
		upstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kubecred_issuance_upstream_duration_seconds",
			Help:    "Latency of calls from verification to issuance",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),
		circuitOpenTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "kubecred_issuance_circuit_opened_total",
			Help: "Times the issuance circuit breaker opened",
		}),
	}
}

func (m *Metrics) IncResult(result, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.results.WithLabelValues(result, reason).Inc()
}

// ObserveUpstream records one call; outcome is ok, not_found, timeout, error or rejected.
func (m *Metrics) ObserveUpstream(operation, outcome string, d time.Duration) {
	if m != nil {
		m.upstreamLatency.WithLabelValues(operation, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncCircuitOpened() {
	if m != nil {
		m.circuitOpenTotal.Inc()
	}
}
