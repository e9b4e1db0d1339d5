package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache lookups by category and outcome.
type Metrics struct {
	lookups *prometheus.CounterVec
}

// NewMetrics registers the cache counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trustnet_cache_lookups_total",
				Help: "Total number of cache lookups by category and result (hit, miss, error).",
			},
			[]string{"category", "result"},
		),
	}
	if err := reg.Register(m.lookups); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(category, result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(category, result).Inc()
}
