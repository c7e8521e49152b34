// Package platform provides an OS abstraction layer for telemetry that
// gopsutil does not cover. Currently that is battery state; each supported
// OS implements the Platform interface.
package platform

const (
	// SecondsLeftUnknown is reported when the remaining time cannot be estimated.
	SecondsLeftUnknown int64 = -1

	// SecondsLeftUnlimited is reported while running on external power.
	SecondsLeftUnlimited int64 = -2
)

// BatteryState is a single battery reading.
type BatteryState struct {
	Percent     float64
	SecondsLeft int64
	Plugged     bool
}

// Platform provides OS-specific functionality beyond what gopsutil offers.
type Platform interface {
	// Battery returns the current battery state, or nil when the system
	// has no battery.
	Battery() (*BatteryState, error)

	// Name returns the platform name (linux, stub).
	Name() string
}
