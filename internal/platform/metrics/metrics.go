package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the workflow engine.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Escalations   prometheus.Counter
	SLABreaches   prometheus.Gauge
	SweepDuration prometheus.Histogram
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vendorflow_transitions_total",
			Help: "Workflow transitions attempted, by operation and outcome",
		}, []string{"operation", "outcome"}),
		Escalations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vendorflow_escalations_total",
			Help: "Vendors escalated by the SLA sweeper",
		}),
		SLABreaches: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vendorflow_sla_breaches",
			Help: "Breaching vendors observed by the most recent SLA report",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vendorflow_sweep_duration_seconds",
			Help:    "Escalation sweep duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveTransition records one transition attempt. Outcome is "ok" or the
// domain error code.
func (m *Metrics) ObserveTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
}

// ObserveSweep records the duration of one escalation sweep.
func (m *Metrics) ObserveSweep(d time.Duration) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(d.Seconds())
}

// SetBreaches publishes the breach count from the latest SLA report.
func (m *Metrics) SetBreaches(n int) {
	if m == nil {
		return
	}
	m.SLABreaches.Set(float64(n))
}

// IncrementEscalations counts one sweeper escalation.
func (m *Metrics) IncrementEscalations() {
	if m == nil {
		return
	}
	m.Escalations.Inc()
}
