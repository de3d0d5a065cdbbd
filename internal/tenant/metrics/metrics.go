package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module. Registration and
// record-creation paths get counters; the registration flow, which spans a
// multi-step transaction, also gets a duration histogram.
type Metrics struct {
	TenantsRegistered   prometheus.Counter
	RecordsCreated      *prometheus.CounterVec
	LimitRejections     *prometheus.CounterVec
	RegistrationSeconds prometheus.Histogram
}

// New creates a Metrics instance with all tenant module metrics registered.
func New() *Metrics {
	return &Metrics{
		TenantsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinica_tenants_registered_total",
			Help: "Total number of clinics registered",
		}),
		RecordsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_records_created_total",
			Help: "Records created per entity kind",
		}, []string{"entity"}),
		LimitRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clinica_limit_rejections_total",
			Help: "Writes rejected by plan capacity limits, per entity kind",
		}, []string{"entity"}),
		RegistrationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinica_registration_duration_seconds",
			Help:    "Duration of the clinic registration transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementTenantsRegistered records a successful clinic registration.
func (m *Metrics) IncrementTenantsRegistered() {
	m.TenantsRegistered.Inc()
}

// IncrementRecordsCreated records a successful entity insert.
func (m *Metrics) IncrementRecordsCreated(entity string) {
	m.RecordsCreated.WithLabelValues(entity).Inc()
}

// IncrementLimitRejections records a write refused by a plan limit.
func (m *Metrics) IncrementLimitRejections(entity string) {
	m.LimitRejections.WithLabelValues(entity).Inc()
}

// ObserveRegistration records the duration of a registration transaction.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveRegistration(start time.Time) {
	m.RegistrationSeconds.Observe(time.Since(start).Seconds())
}
