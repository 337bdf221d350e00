package payment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for payment linking and review.
type Metrics struct {
	PaymentsSubmitted prometheus.Counter
	PaymentsReviewed  *prometheus.CounterVec
}

// NewMetrics creates and registers the payment metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		PaymentsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roboreg_payments_submitted_total",
			Help: "Total number of payment receipts submitted.",
		}),
		PaymentsReviewed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roboreg_payments_reviewed_total",
			Help: "Total number of payments reviewed by admins, by outcome.",
		}, []string{"status"}),
	}
}
