// File: internal/infra/metrics/register.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors accumulate here at package init time; nothing touches the
// default registry until main calls MustRegister. Tests that import this
// package without serving /metrics therefore never register anything.
var (
	pending      []prometheus.Collector
	registerOnce sync.Once
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister installs every collector declared in this package with the
// default Prometheus registry. Safe to call more than once; only the first
// call registers.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(pending...)
		pending = nil
	})
}
