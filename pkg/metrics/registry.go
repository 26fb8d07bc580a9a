// Package metrics provides Prometheus metrics collection for DittoSync runs.
//
// All metrics are optional - if the registry is not initialized, constructors
// return nil and the engine falls back to its no-op implementation.
//
// Usage:
//
//	// Initialize global registry (typically in the run command)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	e.SetMetrics(metrics.NewEngineMetrics())
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is the global Prometheus registry for all DittoSync metrics
	// Protected by registryOnce for write-once, read-many pattern
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// This must be called before creating any metrics instances. It's safe to call
// multiple times - subsequent calls are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry, or nil if
// InitRegistry() has not been called.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if metrics collection is enabled.
func IsEnabled() bool {
	return GetRegistry() != nil
}
