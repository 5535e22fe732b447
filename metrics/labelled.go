package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// LabelledCounter is a monotonically increasing counter partitioned by label
// values, e.g. duplicate transactions by source.
type LabelledCounter struct {
	vec *prometheus.CounterVec
}

// NewRegisteredLabelledCounter constructs a counter vector with the given label
// names and registers it. Registering the same name twice returns a counter
// backed by the first registration.
func NewRegisteredLabelledCounter(name, help string, r Registry, labels ...string) *LabelledCounter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: promName(name),
		Help: help,
	}, labels)
	if existing, ok := register(r, vec).(*prometheus.CounterVec); ok {
		vec = existing
	}
	return &LabelledCounter{vec: vec}
}

// Inc increments the counter partition selected by the label values.
func (c *LabelledCounter) Inc(labelValues ...string) {
	if !Enabled {
		return
	}
	c.vec.WithLabelValues(labelValues...).Inc()
}

// Count returns the current value of the partition selected by the label values.
func (c *LabelledCounter) Count(labelValues ...string) float64 {
	var m dto.Metric
	if err := c.vec.WithLabelValues(labelValues...).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
