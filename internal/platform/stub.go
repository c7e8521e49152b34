//go:build !linux

// Stub Platform implementation for systems without a sysfs power_supply
// class. Reports that no battery is present.
package platform

// StubPlatform is a no-op Platform.
type StubPlatform struct{}

// New creates a stub platform instance.
func New() Platform {
	return &StubPlatform{}
}

// Name returns the platform identifier.
func (p *StubPlatform) Name() string { return "stub" }

// Battery always reports that no battery is present.
func (p *StubPlatform) Battery() (*BatteryState, error) {
	return nil, nil
}
