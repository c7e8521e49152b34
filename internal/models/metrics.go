// Package models defines the telemetry records exchanged between the sampler,
// the cache, the command bridge and the host. Field names follow the JSON
// shapes the front-end expects.
package models

// Kind identifies a telemetry metric.
type Kind string

const (
	KindCPU           Kind = "cpu"
	KindMemory        Kind = "memory"
	KindBattery       Kind = "battery"
	KindNetInterfaces Kind = "net-interfaces"
	KindTopProcesses  Kind = "top-procs"
	KindBootTime      Kind = "boot-time"
)

// CheapKinds are sampled on every poll tick and served from the cache.
var CheapKinds = []Kind{KindCPU, KindMemory, KindBattery, KindNetInterfaces}

// IsCheap reports whether k is served from the cache.
func (k Kind) IsCheap() bool {
	for _, c := range CheapKinds {
		if c == k {
			return true
		}
	}
	return false
}

// Record is one telemetry sample. Each concrete type reports its own kind.
type Record interface {
	Kind() Kind
}

// CPU holds the overall CPU utilisation over the sampling window.
type CPU struct {
	Percent float64 `json:"percent"`
}

// MemStats holds totals for one memory pool.
type MemStats struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Percent float64 `json:"percent"`
}

// Memory holds virtual and swap memory usage.
type Memory struct {
	Virtual MemStats `json:"vmem"`
	Swap    MemStats `json:"swap"`
}

// Battery holds battery state. When no battery is present the record carries
// the sentinel values returned by NoBattery.
type Battery struct {
	Present     bool    `json:"battery"`
	Percent     float64 `json:"percent"`
	SecondsLeft int64   `json:"secsleft"`
	Plugged     bool    `json:"plugged"`
}

// NoBattery is the sentinel record for systems without a battery.
func NoBattery() Battery {
	return Battery{Present: false, Percent: -1, SecondsLeft: -1, Plugged: true}
}

// Family is an address family tag. Families the sampler does not recognise
// are passed through as the provider's raw tag.
type Family string

const (
	FamilyIPv4 Family = "IPv4"
	FamilyIPv6 Family = "IPv6"
	FamilyLink Family = "MAC"
)

// Address is one address bound to a network interface.
type Address struct {
	Family    Family `json:"family"`
	Address   string `json:"address"`
	Netmask   string `json:"netmask"`
	Broadcast string `json:"broadcast"`
	Peer      string `json:"p2p"`
}

// Interface is a network interface and all of its addresses.
type Interface struct {
	Name      string    `json:"name"`
	Addresses []Address `json:"addresses"`
}

// NetInterfaces lists every interface known to the provider.
type NetInterfaces []Interface

// ProcessMemUsage holds resident and virtual memory sizes in bytes.
type ProcessMemUsage struct {
	RSS uint64 `json:"rss"`
	VMS uint64 `json:"vms"`
}

// ProcessMem is one process in a memory ranking.
type ProcessMem struct {
	PID  int32           `json:"pid"`
	Name string          `json:"name"`
	Mem  ProcessMemUsage `json:"mem"`
}

// TopProcesses is ordered by descending RSS.
type TopProcesses []ProcessMem

// BootTime is the system boot timestamp in unix seconds.
type BootTime float64

func (CPU) Kind() Kind           { return KindCPU }
func (Memory) Kind() Kind        { return KindMemory }
func (Battery) Kind() Kind       { return KindBattery }
func (NetInterfaces) Kind() Kind { return KindNetInterfaces }
func (TopProcesses) Kind() Kind  { return KindTopProcesses }
func (BootTime) Kind() Kind      { return KindBootTime }

// Default returns the empty record published for a kind whose sampler failed.
// It returns nil for unknown kinds.
func Default(k Kind) Record {
	switch k {
	case KindCPU:
		return CPU{}
	case KindMemory:
		return Memory{}
	case KindBattery:
		return NoBattery()
	case KindNetInterfaces:
		return NetInterfaces{}
	case KindTopProcesses:
		return TopProcesses{}
	case KindBootTime:
		return BootTime(0)
	default:
		return nil
	}
}
