package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/Guliveer/vitalis/spy/internal/models"
	"github.com/Guliveer/vitalis/spy/internal/platform"
)

// RawAddress is an interface address as reported by the provider.
// Family is the provider's own tag; empty means it must be inferred from Addr.
type RawAddress struct {
	Family string
	Addr   string
	Peer   string
}

// RawInterface is a network interface as reported by the provider.
type RawInterface struct {
	Name         string
	HardwareAddr string
	Flags        []string
	Addrs        []RawAddress
}

// Provider is the OS metrics source the sampling functions query.
type Provider interface {
	// CPUPercent blocks for interval and returns overall utilisation.
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	VirtualMemory(ctx context.Context) (models.MemStats, error)
	SwapMemory(ctx context.Context) (models.MemStats, error)
	// Battery returns nil when the system has no battery.
	Battery(ctx context.Context) (*platform.BatteryState, error)
	Interfaces(ctx context.Context) ([]RawInterface, error)
	// Processes returns name and memory for every live process that could
	// be read. Processes that vanish or deny access are left out.
	Processes(ctx context.Context) ([]models.ProcessMem, error)
	BootTime(ctx context.Context) (uint64, error)
}

// SystemProvider implements Provider with gopsutil and the platform layer.
type SystemProvider struct {
	platform platform.Platform
}

// NewSystemProvider creates a provider for the running host.
// Pass nil to use the default platform implementation.
func NewSystemProvider(p platform.Platform) *SystemProvider {
	if p == nil {
		p = platform.New()
	}
	return &SystemProvider{platform: p}
}

// CPUPercent measures overall CPU usage across all cores.
func (s *SystemProvider) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, nil
	}
	return pcts[0], nil
}

// VirtualMemory reads physical memory totals.
func (s *SystemProvider) VirtualMemory(ctx context.Context) (models.MemStats, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.MemStats{}, err
	}
	return models.MemStats{Total: v.Total, Used: v.Used, Percent: v.UsedPercent}, nil
}

// SwapMemory reads swap totals.
func (s *SystemProvider) SwapMemory(ctx context.Context) (models.MemStats, error) {
	v, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return models.MemStats{}, err
	}
	return models.MemStats{Total: v.Total, Used: v.Used, Percent: v.UsedPercent}, nil
}

// Battery delegates to the platform layer.
func (s *SystemProvider) Battery(ctx context.Context) (*platform.BatteryState, error) {
	return s.platform.Battery()
}

// Interfaces lists network interfaces with their addresses in CIDR form.
func (s *SystemProvider) Interfaces(ctx context.Context) ([]RawInterface, error) {
	stats, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]RawInterface, 0, len(stats))
	for _, st := range stats {
		ri := RawInterface{
			Name:         st.Name,
			HardwareAddr: st.HardwareAddr,
			Flags:        st.Flags,
		}
		for _, a := range st.Addrs {
			ri.Addrs = append(ri.Addrs, RawAddress{Addr: a.Addr})
		}
		result = append(result, ri)
	}
	return result, nil
}

// Processes enumerates live processes. Individual process errors are
// silently skipped so one inaccessible process does not fail the listing.
func (s *SystemProvider) Processes(ctx context.Context) ([]models.ProcessMem, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]models.ProcessMem, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		mi, err := p.MemoryInfoWithContext(ctx)
		if err != nil || mi == nil {
			continue
		}
		infos = append(infos, models.ProcessMem{
			PID:  p.Pid,
			Name: name,
			Mem:  models.ProcessMemUsage{RSS: mi.RSS, VMS: mi.VMS},
		})
	}
	return infos, nil
}

// BootTime returns the boot timestamp in unix seconds.
func (s *SystemProvider) BootTime(ctx context.Context) (uint64, error) {
	return host.BootTimeWithContext(ctx)
}
