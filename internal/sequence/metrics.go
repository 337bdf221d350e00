package sequence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for identifier allocation.
type Metrics struct {
	Allocations *prometheus.CounterVec
}

// NewMetrics registers allocator metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Allocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roboreg_ids_allocated_total",
			Help: "Total number of identifiers allocated, per sequence",
		}, []string{"sequence"}),
	}
}

// ObserveAllocation records one allocation from the named sequence.
func (m *Metrics) ObserveAllocation(sequence string) {
	m.Allocations.WithLabelValues(sequence).Inc()
}
