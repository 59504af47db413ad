package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-level Prometheus metrics. Module-specific metrics live
// in each module's metrics package.
type Metrics struct {
	LogsSubmitted prometheus.Counter
	HTTPDuration  *prometheus.HistogramVec
	AuditEmitted  *prometheus.CounterVec
}

// New creates and registers all process-level Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LogsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rotalog_logs_submitted_total",
			Help: "Total number of procedure logs submitted",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rotalog_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
		AuditEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rotalog_audit_events_total",
			Help: "Total audit events emitted by action",
		}, []string{"action"}),
	}
}

// IncrementLogsSubmitted increments the submitted logs counter by 1.
func (m *Metrics) IncrementLogsSubmitted() {
	if m != nil {
		m.LogsSubmitted.Inc()
	}
}

// IncrementAuditEmitted records one emitted audit event.
func (m *Metrics) IncrementAuditEmitted(action string) {
	if m != nil {
		m.AuditEmitted.WithLabelValues(action).Inc()
	}
}
