package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/Guliveer/vitalis/spy/internal/models"
	"github.com/Guliveer/vitalis/spy/internal/platform"
)

// MockProvider is an in-memory Provider for tests and for running the
// backend without touching the host. CPU sampling returns immediately
// instead of blocking for the requested window.
type MockProvider struct {
	mu sync.Mutex

	CPU        float64
	Virtual    models.MemStats
	Swap       models.MemStats
	Bat        *platform.BatteryState
	Ifaces     []RawInterface
	Procs      []models.ProcessMem
	Boot       uint64
	Errors     map[models.Kind]error
	CPUDelay   time.Duration
	cpuSamples atomic.Int64
}

// NewMockProvider returns a provider with plausible Steam Deck-like readings.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		CPU:     12.5,
		Virtual: models.MemStats{Total: 16 << 30, Used: 6 << 30, Percent: 37.5},
		Swap:    models.MemStats{Total: 1 << 30, Used: 0, Percent: 0},
		Bat:     &platform.BatteryState{Percent: 80, SecondsLeft: 9000, Plugged: false},
		Ifaces: []RawInterface{
			{Name: "lo", Flags: []string{"up", "loopback"}, Addrs: []RawAddress{{Addr: "127.0.0.1/8"}, {Addr: "::1/128"}}},
			{Name: "wlan0", HardwareAddr: "aa:bb:cc:dd:ee:ff", Flags: []string{"up", "broadcast", "multicast"}, Addrs: []RawAddress{{Addr: "192.168.1.20/24"}}},
		},
		Procs: []models.ProcessMem{
			{PID: 1, Name: "systemd", Mem: models.ProcessMemUsage{RSS: 12 << 20, VMS: 160 << 20}},
			{PID: 420, Name: "steam", Mem: models.ProcessMemUsage{RSS: 900 << 20, VMS: 4 << 30}},
			{PID: 777, Name: "gamescope", Mem: models.ProcessMemUsage{RSS: 300 << 20, VMS: 2 << 30}},
		},
		Boot:   1700000000,
		Errors: map[models.Kind]error{},
	}
}

// SetCPU changes the CPU reading.
func (m *MockProvider) SetCPU(v float64) {
	m.mu.Lock()
	m.CPU = v
	m.mu.Unlock()
}

// SetError makes the sampler for kind fail with err. Pass nil to clear.
func (m *MockProvider) SetError(kind models.Kind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Errors == nil {
		m.Errors = map[models.Kind]error{}
	}
	if err == nil {
		delete(m.Errors, kind)
		return
	}
	m.Errors[kind] = err
}

// CPUSamples returns how many times CPUPercent has been called.
func (m *MockProvider) CPUSamples() int64 {
	return m.cpuSamples.Load()
}

func (m *MockProvider) errFor(kind models.Kind) error {
	return m.Errors[kind]
}

func (m *MockProvider) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	m.cpuSamples.Inc()
	m.mu.Lock()
	delay := m.CPUDelay
	m.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CPU, m.errFor(models.KindCPU)
}

func (m *MockProvider) VirtualMemory(ctx context.Context) (models.MemStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Virtual, m.errFor(models.KindMemory)
}

func (m *MockProvider) SwapMemory(ctx context.Context) (models.MemStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Swap, m.errFor(models.KindMemory)
}

func (m *MockProvider) Battery(ctx context.Context) (*platform.BatteryState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Bat == nil {
		return nil, m.errFor(models.KindBattery)
	}
	b := *m.Bat
	return &b, m.errFor(models.KindBattery)
}

func (m *MockProvider) Interfaces(ctx context.Context) ([]RawInterface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RawInterface, len(m.Ifaces))
	copy(out, m.Ifaces)
	return out, m.errFor(models.KindNetInterfaces)
}

func (m *MockProvider) Processes(ctx context.Context) ([]models.ProcessMem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ProcessMem, len(m.Procs))
	copy(out, m.Procs)
	return out, m.errFor(models.KindTopProcesses)
}

func (m *MockProvider) BootTime(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Boot, m.errFor(models.KindBootTime)
}
