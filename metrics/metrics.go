// Package metrics provides the counters the admission core reports through,
// exported via a prometheus registry.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Enabled is checked by the constructor functions for all of the
// standard metrics. If it is false, the metric returned is a stub.
var Enabled = true

// Registry is the sink metrics are registered with.
type Registry = prometheus.Registerer

// DefaultRegistry is the registry used when a nil registry is supplied.
var DefaultRegistry = prometheus.NewRegistry()

// promName converts a slash separated metric path into a prometheus metric name.
func promName(name string) string {
	return strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(name)
}

// register adds c to r, returning the collector already registered under the
// same descriptor if there is one.
func register(r Registry, c prometheus.Collector) prometheus.Collector {
	if r == nil {
		r = DefaultRegistry
	}
	if err := r.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
