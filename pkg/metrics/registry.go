// Package metrics defines the observability hooks of the Gopher adapter and
// the mount stores, and serves them over HTTP.
//
// Nothing is collected until InitRegistry runs: constructors in
// pkg/metrics/prometheus hand back no-op recorders while the registry is
// nil, and callers may pass nil wherever a recorder is accepted.
//
//	metrics.InitRegistry()
//	gm := prometheus.NewGopherMetrics()
//	sm := prometheus.NewStoreMetrics()
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry *prometheus.Registry
	initOnce sync.Once
)

// InitRegistry creates the process registry with runtime, process and
// build-info collectors. Later calls are no-ops.
func InitRegistry() {
	initOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
		registry = reg
	})
}

// GetRegistry returns the registry, or nil when metrics are off.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has run.
func IsEnabled() bool {
	return registry != nil
}
