package approval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the approval workflow.
type Metrics struct {
	RegistrationsApproved prometheus.Counter
	RegistrationsRejected prometheus.Counter
	PaymentsUnwound       prometheus.Counter
}

// NewMetrics creates and registers the approval metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RegistrationsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roboreg_registrations_approved_total",
			Help: "Total number of registrations approved.",
		}),
		RegistrationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roboreg_registrations_rejected_total",
			Help: "Total number of registrations rejected.",
		}),
		PaymentsUnwound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roboreg_payments_unwound_total",
			Help: "Payments trimmed or deleted by the rejection cascade.",
		}),
	}
}
