//go:build linux

// Linux Platform implementation.
// Reads battery and AC adapter state from /sys/class/power_supply.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultPowerSupplyRoot = "/sys/class/power_supply"

// LinuxPlatform implements Platform using sysfs.
type LinuxPlatform struct {
	root string
}

// New creates a Linux platform reading the standard sysfs location.
func New() Platform {
	return &LinuxPlatform{root: defaultPowerSupplyRoot}
}

// NewWithRoot creates a Linux platform reading power supplies under root.
func NewWithRoot(root string) *LinuxPlatform {
	return &LinuxPlatform{root: root}
}

// Name returns the platform identifier.
func (p *LinuxPlatform) Name() string { return "linux" }

// Battery returns the state of the first battery found under the
// power_supply class. Returns nil when no battery is present.
func (p *LinuxPlatform) Battery() (*BatteryState, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("platform: list power supplies: %w", err)
	}

	var batteryDir string
	acOnline := false
	acSeen := false
	for _, e := range entries {
		dir := filepath.Join(p.root, e.Name())
		switch readString(dir, "type") {
		case "Battery":
			// Skip peripheral batteries (mice, controllers) that report scope=Device.
			if readString(dir, "scope") == "Device" {
				continue
			}
			if batteryDir == "" {
				batteryDir = dir
			}
		case "Mains", "USB":
			if online, ok := readInt(dir, "online"); ok {
				acSeen = true
				if online == 1 {
					acOnline = true
				}
			}
		}
	}

	if batteryDir == "" {
		return nil, nil
	}

	state := &BatteryState{SecondsLeft: SecondsLeftUnknown}

	if capacity, ok := readInt(batteryDir, "capacity"); ok {
		state.Percent = float64(capacity)
	} else if now, full, ok := energyPair(batteryDir); ok && full > 0 {
		state.Percent = 100 * float64(now) / float64(full)
	} else {
		return nil, fmt.Errorf("platform: battery %s reports no capacity", filepath.Base(batteryDir))
	}

	status := readString(batteryDir, "status")
	if acSeen {
		state.Plugged = acOnline
	} else {
		state.Plugged = status == "Charging" || status == "Full" || status == "Not charging"
	}

	if state.Plugged {
		state.SecondsLeft = SecondsLeftUnlimited
	} else {
		state.SecondsLeft = secondsLeft(batteryDir)
	}

	return state, nil
}

// secondsLeft estimates remaining discharge time from energy/power or
// charge/current readings.
func secondsLeft(dir string) int64 {
	if now, ok := readInt(dir, "energy_now"); ok {
		if rate, ok := readInt(dir, "power_now"); ok && rate > 0 {
			return now * 3600 / rate
		}
	}
	if now, ok := readInt(dir, "charge_now"); ok {
		if rate, ok := readInt(dir, "current_now"); ok && rate > 0 {
			return now * 3600 / rate
		}
	}
	return SecondsLeftUnknown
}

// energyPair returns the current and full energy (or charge) readings.
func energyPair(dir string) (int64, int64, bool) {
	for _, pair := range [][2]string{{"energy_now", "energy_full"}, {"charge_now", "charge_full"}} {
		now, ok1 := readInt(dir, pair[0])
		full, ok2 := readInt(dir, pair[1])
		if ok1 && ok2 {
			return now, full, true
		}
	}
	return 0, 0, false
}

func readString(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readInt(dir, name string) (int64, bool) {
	s := readString(dir, name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
