package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the alert engine.
type Metrics struct {
	CyclesTotal    prometheus.Counter
	CycleDuration  prometheus.Histogram
	MonitorRunning prometheus.Gauge

	DomainErrors  *prometheus.CounterVec // labels: domain
	AlertsCreated *prometheus.CounterVec // labels: category, severity
	Suppressed    *prometheus.CounterVec // labels: domain
	Deliveries    *prometheus.CounterVec // labels: channel, outcome={success,error}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.MonitorRunning,
		m.DomainErrors,
		m.AlertsCreated,
		m.Suppressed,
		m.Deliveries,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across test cases.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "monitor_cycles_total",
			Help:      "Completed monitoring cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard_alerts",
			Name:      "monitor_cycle_duration_seconds",
			Help:      "Duration of a full evaluate-dispatch-prune cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_alerts",
			Name:      "monitor_running",
			Help:      "1 while the monitoring loop is active.",
		}),
		DomainErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "domain_errors_total",
			Help:      "Per-domain fetch or processing failures.",
		}, []string{"domain"}),
		AlertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "alerts_created_total",
			Help:      "Alerts persisted, by category and severity.",
		}, []string{"category", "severity"}),
		Suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "alerts_suppressed_total",
			Help:      "Alert candidates dropped by the cooldown cache.",
		}, []string{"domain"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "notification_deliveries_total",
			Help:      "Channel send attempts by outcome.",
		}, []string{"channel", "outcome"}),
	}
}
