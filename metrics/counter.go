package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Counter is a monotonically increasing event count exported to prometheus.
// A nil or disabled Counter discards increments.
type Counter struct {
	c prometheus.Counter
}

// NewRegisteredCounter creates a counter for the slash separated path and
// registers it. A second registration of the same path shares the first
// collector.
func NewRegisteredCounter(name string, r Registry) *Counter {
	if !Enabled {
		return new(Counter)
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: promName(name)})
	if existing, ok := register(r, c).(prometheus.Counter); ok {
		c = existing
	}
	return &Counter{c: c}
}

// Inc adds n to the counter. Negative amounts are ignored.
func (c *Counter) Inc(n int64) {
	if c == nil || c.c == nil || n <= 0 {
		return
	}
	c.c.Add(float64(n))
}

// Count returns the current value.
func (c *Counter) Count() int64 {
	if c == nil || c.c == nil {
		return 0
	}
	var m dto.Metric
	if err := c.c.Write(&m); err != nil {
		return 0
	}
	return int64(m.GetCounter().GetValue())
}
