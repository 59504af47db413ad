package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module. Decisions are
// counted per outcome so reviewer throughput and rejection rates fall out of
// one series.
type Metrics struct {
	Decisions        *prometheus.CounterVec
	DecisionConflict prometheus.Counter
	DecideDuration   prometheus.Histogram
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rotalog_verification_decisions_total",
			Help: "Total verification decisions by resulting status",
		}, []string{"status"}),
		DecisionConflict: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rotalog_verification_decision_conflicts_total",
			Help: "Decisions rejected because another reviewer decided first",
		}),
		DecideDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rotalog_verification_decide_duration_seconds",
			Help:    "Duration of decide operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementDecision records a successful decision with its resulting status.
func (m *Metrics) IncrementDecision(status string) {
	if m != nil {
		m.Decisions.WithLabelValues(status).Inc()
	}
}

// IncrementConflict records a decision lost to a concurrent reviewer.
func (m *Metrics) IncrementConflict() {
	if m != nil {
		m.DecisionConflict.Inc()
	}
}

// ObserveDecide records the duration of a decide operation. Call with
// time.Now() at the start of the operation.
func (m *Metrics) ObserveDecide(start time.Time) {
	if m != nil {
		m.DecideDuration.Observe(time.Since(start).Seconds())
	}
}
