// Package collector provides a registry for managing metric collectors.
// Collectors are registered at startup; the poller walks the registry in
// registration order on every tick.
package collector

import (
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// Registry manages all registered collectors.
type Registry struct {
	collectors []Collector
	logger     *zap.Logger
}

// NewRegistry creates a new collector registry with the given logger.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		collectors: make([]Collector, 0),
		logger:     logger,
	}
}

// NewDefaultRegistry registers the collectors for every cheap metric kind.
func NewDefaultRegistry(p Provider, logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewCPUCollector(p))
	r.Register(NewMemoryCollector(p))
	r.Register(NewBatteryCollector(p))
	r.Register(NewNetworkCollector(p))
	return r
}

// Register adds a collector if it's available on the current platform.
// A collector for an already registered kind replaces the previous one.
// Unavailable collectors are logged and skipped.
func (r *Registry) Register(c Collector) {
	if !c.IsAvailable() {
		r.logger.Warn("Collector not available, skipping", zap.String("kind", string(c.Kind())))
		return
	}
	for i, existing := range r.collectors {
		if existing.Kind() == c.Kind() {
			r.collectors[i] = c
			return
		}
	}
	r.collectors = append(r.collectors, c)
	r.logger.Debug("Registered collector", zap.String("kind", string(c.Kind())))
}

// Get returns the collector for a kind.
func (r *Registry) Get(kind models.Kind) (Collector, bool) {
	for _, c := range r.collectors {
		if c.Kind() == kind {
			return c, true
		}
	}
	return nil, false
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []models.Kind {
	kinds := make([]models.Kind, len(r.collectors))
	for i, c := range r.collectors {
		kinds[i] = c.Kind()
	}
	return kinds
}

// Collectors returns a copy of all registered collectors.
func (r *Registry) Collectors() []Collector {
	result := make([]Collector, len(r.collectors))
	copy(result, r.collectors)
	return result
}
