package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-level Prometheus metrics for the isolation core.
type Metrics struct {
	ScopeBindings        prometheus.Counter
	ScopeBindingFailures prometheus.Counter
	BypassInvocations    *prometheus.CounterVec
	IsolationRejections  prometheus.Counter
	ScopedTxDurationMs   prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ScopeBindings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_scope_bindings_total",
			Help: "Total number of tenant scope directives bound to transactions",
		}),
		ScopeBindingFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_scope_binding_failures_total",
			Help: "Total number of failed scope bindings (systemic alarm)",
		}),
		BypassInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_scope_bypass_invocations_total",
			Help: "Total number of cross-tenant bypass transactions by origin",
		}, []string{"origin"}),
		IsolationRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_isolation_rejections_total",
			Help: "Total number of writes rejected by the row security policies",
		}),
		ScopedTxDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinica_scoped_tx_duration_ms",
			Help:    "Latency of tenant-scoped transactions in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

func (m *Metrics) IncrementScopeBindings() {
	if m != nil {
		m.ScopeBindings.Inc()
	}
}

func (m *Metrics) IncrementScopeBindingFailures() {
	if m != nil {
		m.ScopeBindingFailures.Inc()
	}
}

func (m *Metrics) IncrementBypassInvocations(origin string) {
	if m != nil {
		m.BypassInvocations.WithLabelValues(origin).Inc()
	}
}

func (m *Metrics) IncrementIsolationRejections() {
	if m != nil {
		m.IsolationRejections.Inc()
	}
}

func (m *Metrics) ObserveScopedTxDuration(ms float64) {
	if m != nil {
		m.ScopedTxDurationMs.Observe(ms)
	}
}
