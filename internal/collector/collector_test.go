package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

func TestSampleCPU(t *testing.T) {
	ctx := context.Background()
	p := NewMockProvider()
	p.SetCPU(42.5)

	got, err := SampleCPU(ctx, p, DefaultCPUWindow)
	require.NoError(t, err)
	assert.Equal(t, models.CPU{Percent: 42.5}, got)

	p.SetCPU(180)
	got, err = SampleCPU(ctx, p, DefaultCPUWindow)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Percent)

	p.SetError(models.KindCPU, errors.New("no /proc/stat"))
	got, err = SampleCPU(ctx, p, DefaultCPUWindow)
	require.NoError(t, err)
	assert.Equal(t, models.CPU{}, got)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = SampleCPU(cancelled, p, DefaultCPUWindow)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampleMemory(t *testing.T) {
	p := NewMockProvider()
	got, err := SampleMemory(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p.Virtual.Total, got.Virtual.Total)
	assert.GreaterOrEqual(t, got.Virtual.Percent, 0.0)
	assert.LessOrEqual(t, got.Virtual.Percent, 100.0)

	p.SetError(models.KindMemory, errors.New("denied"))
	_, err = SampleMemory(context.Background(), p)
	assert.ErrorContains(t, err, "virtual memory")
}

func TestSampleBattery_NoBattery(t *testing.T) {
	p := NewMockProvider()
	p.Bat = nil

	got, err := SampleBattery(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, models.Battery{Present: false, Percent: -1, SecondsLeft: -1, Plugged: true}, got)
}

func TestSampleBattery_Present(t *testing.T) {
	got, err := SampleBattery(context.Background(), NewMockProvider())
	require.NoError(t, err)
	assert.True(t, got.Present)
	assert.Equal(t, 80.0, got.Percent)
	assert.Equal(t, int64(9000), got.SecondsLeft)
	assert.False(t, got.Plugged)
}

func TestSampleNetInterfaces(t *testing.T) {
	p := NewMockProvider()
	p.Ifaces = append(p.Ifaces,
		RawInterface{Name: "tun0", Flags: []string{"up", "pointtopoint"}, Addrs: []RawAddress{{Addr: "10.8.0.2/32", Peer: "10.8.0.1"}}},
		RawInterface{Name: "can0", Addrs: []RawAddress{{Family: "29", Addr: "vcan"}}},
		RawInterface{Name: "odd", Addrs: []RawAddress{{Addr: "not-an-address"}}},
	)

	got, err := SampleNetInterfaces(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, got, 5)

	lo := got[0]
	assert.Equal(t, "lo", lo.Name)
	require.Len(t, lo.Addresses, 2)
	assert.Equal(t, models.Address{Family: models.FamilyIPv4, Address: "127.0.0.1", Netmask: "255.0.0.0"}, lo.Addresses[0])
	assert.Equal(t, models.FamilyIPv6, lo.Addresses[1].Family)
	assert.Equal(t, "::1", lo.Addresses[1].Address)

	wlan := got[1]
	require.Len(t, wlan.Addresses, 2)
	assert.Equal(t, models.Address{
		Family:    models.FamilyIPv4,
		Address:   "192.168.1.20",
		Netmask:   "255.255.255.0",
		Broadcast: "192.168.1.255",
	}, wlan.Addresses[0])
	assert.Equal(t, models.Address{
		Family:    models.FamilyLink,
		Address:   "aa:bb:cc:dd:ee:ff",
		Broadcast: "ff:ff:ff:ff:ff:ff",
	}, wlan.Addresses[1])

	tun := got[2]
	assert.Equal(t, "10.8.0.1", tun.Addresses[0].Peer)
	assert.Empty(t, tun.Addresses[0].Broadcast)

	can := got[3]
	assert.Equal(t, models.Family("29"), can.Addresses[0].Family)
	assert.Equal(t, "vcan", can.Addresses[0].Address)

	odd := got[4]
	assert.Equal(t, models.Family(familyUnknown), odd.Addresses[0].Family)
}

func TestSampleTopProcesses(t *testing.T) {
	p := NewMockProvider()
	p.Procs = append(p.Procs,
		models.ProcessMem{PID: 900, Name: "tie-a", Mem: models.ProcessMemUsage{RSS: 300 << 20}},
	)

	tests := []struct {
		k    int
		want []int32
	}{
		{k: 1, want: []int32{420}},
		{k: 3, want: []int32{420, 777, 900}},
		{k: 10, want: []int32{420, 777, 900, 1}},
		{k: 0, want: []int32{}},
		{k: -4, want: []int32{}},
	}
	for _, tt := range tests {
		got, err := SampleTopProcesses(context.Background(), p, tt.k)
		require.NoError(t, err)
		pids := make([]int32, 0, len(got))
		for _, proc := range got {
			pids = append(pids, proc.PID)
		}
		assert.Equal(t, tt.want, pids, "k=%d", tt.k)
	}
}

func TestSampleTopProcesses_SortedDescending(t *testing.T) {
	got, err := SampleTopProcesses(context.Background(), NewMockProvider(), 10)
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Mem.RSS, got[i].Mem.RSS)
	}
}

func TestSampleBootTime(t *testing.T) {
	got, err := SampleBootTime(context.Background(), NewMockProvider())
	require.NoError(t, err)
	assert.Equal(t, models.BootTime(1700000000), got)
}

type unavailableCollector struct{ CPUCollector }

func (*unavailableCollector) IsAvailable() bool { return false }

func TestRegistry(t *testing.T) {
	p := NewMockProvider()
	r := NewDefaultRegistry(p, nil)
	assert.Equal(t, models.CheapKinds, r.Kinds())

	r.Register(NewCPUCollector(p))
	assert.Len(t, r.Collectors(), 4, "re-registering a kind replaces it")

	r2 := NewRegistry(nil)
	r2.Register(&unavailableCollector{})
	assert.Empty(t, r2.Collectors())

	c, ok := r.Get(models.KindBattery)
	require.True(t, ok)
	rec, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.KindBattery, rec.Kind())

	_, ok = r.Get(models.KindBootTime)
	assert.False(t, ok)
}
