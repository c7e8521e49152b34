// RAM and swap usage sampler.
package collector

import (
	"context"
	"fmt"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// SampleMemory reads virtual and swap memory totals.
func SampleMemory(ctx context.Context, p Provider) (models.Memory, error) {
	vmem, err := p.VirtualMemory(ctx)
	if err != nil {
		return models.Memory{}, fmt.Errorf("virtual memory: %w", err)
	}
	swap, err := p.SwapMemory(ctx)
	if err != nil {
		return models.Memory{}, fmt.Errorf("swap memory: %w", err)
	}
	vmem.Percent = clampPercent(vmem.Percent)
	swap.Percent = clampPercent(swap.Percent)
	return models.Memory{Virtual: vmem, Swap: swap}, nil
}

// MemoryCollector collects RAM and swap usage metrics.
type MemoryCollector struct {
	provider Provider
}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector(p Provider) *MemoryCollector {
	return &MemoryCollector{provider: p}
}

// Kind returns the record kind.
func (c *MemoryCollector) Kind() models.Kind { return models.KindMemory }

// Collect gathers memory usage data.
func (c *MemoryCollector) Collect(ctx context.Context) (models.Record, error) {
	return SampleMemory(ctx, c.provider)
}

// IsAvailable returns true: memory metrics are available on all platforms.
func (c *MemoryCollector) IsAvailable() bool { return true }
