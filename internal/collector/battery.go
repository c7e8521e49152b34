// Battery sampler. A missing battery is reported with sentinel values,
// not an error.
package collector

import (
	"context"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// SampleBattery reads the battery state.
func SampleBattery(ctx context.Context, p Provider) (models.Battery, error) {
	state, err := p.Battery(ctx)
	if err != nil {
		return models.NoBattery(), err
	}
	if state == nil {
		return models.NoBattery(), nil
	}
	return models.Battery{
		Present:     true,
		Percent:     clampPercent(state.Percent),
		SecondsLeft: state.SecondsLeft,
		Plugged:     state.Plugged,
	}, nil
}

// BatteryCollector collects battery state.
type BatteryCollector struct {
	provider Provider
}

// NewBatteryCollector creates a new battery collector.
func NewBatteryCollector(p Provider) *BatteryCollector {
	return &BatteryCollector{provider: p}
}

// Kind returns the record kind.
func (c *BatteryCollector) Kind() models.Kind { return models.KindBattery }

// Collect gathers battery state.
func (c *BatteryCollector) Collect(ctx context.Context) (models.Record, error) {
	return SampleBattery(ctx, c.provider)
}

// IsAvailable returns true: systems without a battery report the sentinel.
func (c *BatteryCollector) IsAvailable() bool { return true }
