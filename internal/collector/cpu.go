// CPU usage sampler: overall utilisation over a fixed window.
package collector

import (
	"context"
	"time"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// DefaultCPUWindow is the measurement window for SampleCPU.
const DefaultCPUWindow = time.Second

// SampleCPU blocks for window and returns overall CPU usage. A provider
// that cannot measure yields 0%; only cancellation of ctx is an error.
func SampleCPU(ctx context.Context, p Provider, window time.Duration) (models.CPU, error) {
	pct, err := p.CPUPercent(ctx, window)
	if err != nil {
		if ctx.Err() != nil {
			return models.CPU{}, ctx.Err()
		}
		return models.CPU{}, nil
	}
	return models.CPU{Percent: clampPercent(pct)}, nil
}

// CPUCollector collects CPU usage metrics.
type CPUCollector struct {
	provider Provider
	window   time.Duration
}

// NewCPUCollector creates a new CPU collector using the default window.
func NewCPUCollector(p Provider) *CPUCollector {
	return &CPUCollector{provider: p, window: DefaultCPUWindow}
}

// Kind returns the record kind.
func (c *CPUCollector) Kind() models.Kind { return models.KindCPU }

// Collect gathers CPU usage. The measurement blocks for the collector window.
func (c *CPUCollector) Collect(ctx context.Context) (models.Record, error) {
	return SampleCPU(ctx, c.provider, c.window)
}

// IsAvailable returns true: CPU metrics are available on all platforms.
func (c *CPUCollector) IsAvailable() bool { return true }

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
