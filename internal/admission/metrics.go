package admission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for team admission.
type Metrics struct {
	TeamsAdmitted  *prometheus.CounterVec
	TeamsWithdrawn prometheus.Counter
	CapRejections  *prometheus.CounterVec
	LeaseBusy      prometheus.Counter
}

// NewMetrics creates and registers the admission metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TeamsAdmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roboreg_teams_admitted_total",
			Help: "Total number of teams admitted, by category.",
		}, []string{"category"}),
		TeamsWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roboreg_teams_withdrawn_total",
			Help: "Total number of teams withdrawn.",
		}),
		CapRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roboreg_admission_cap_rejections_total",
			Help: "Admissions rejected because the per-organisation cap was reached, by category.",
		}, []string{"category"}),
		LeaseBusy: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roboreg_admission_lease_busy_total",
			Help: "Admissions turned away because a concurrent admission held the lease.",
		}),
	}
}
