// Package collector defines the Collector interface, the OS metrics Provider,
// and the sampling functions that turn provider readings into telemetry
// records. Sampling functions hold no state; collectors wrap them for the
// poller.
package collector

import (
	"context"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// Collector is the interface that all cheap metric collectors must implement.
// Each collector produces one record kind per call.
type Collector interface {
	// Kind returns the record kind this collector produces.
	Kind() models.Kind

	// Collect samples the metric once and returns the record.
	// The context allows for cancellation and timeout control.
	Collect(ctx context.Context) (models.Record, error)

	// IsAvailable checks if this collector can run on the current platform.
	// Collectors that return false will not be registered.
	IsAvailable() bool
}
