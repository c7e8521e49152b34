// Network interface sampler: every interface and every address bound to it.
// Addresses arrive from the provider in CIDR form and are split into
// address, netmask and broadcast here.
package collector

import (
	"context"
	"net"

	"github.com/Guliveer/vitalis/spy/internal/models"
)

// familyUnknown tags addresses that carry no family and cannot be parsed.
const familyUnknown = "unknown"

// providerFamilies maps provider family tags to the families the front-end knows.
var providerFamilies = map[string]models.Family{
	"inet":   models.FamilyIPv4,
	"inet6":  models.FamilyIPv6,
	"link":   models.FamilyLink,
	"packet": models.FamilyLink,
}

// SampleNetInterfaces enumerates interfaces and their addresses.
// Unknown address families are passed through as the raw provider tag.
func SampleNetInterfaces(ctx context.Context, p Provider) (models.NetInterfaces, error) {
	raws, err := p.Interfaces(ctx)
	if err != nil {
		return models.NetInterfaces{}, err
	}

	result := make(models.NetInterfaces, 0, len(raws))
	for _, ri := range raws {
		iface := models.Interface{Name: ri.Name, Addresses: []models.Address{}}
		broadcast := hasFlag(ri.Flags, "broadcast")
		for _, ra := range ri.Addrs {
			iface.Addresses = append(iface.Addresses, convertAddress(ra, broadcast))
		}
		if ri.HardwareAddr != "" {
			link := models.Address{Family: models.FamilyLink, Address: ri.HardwareAddr}
			if broadcast {
				link.Broadcast = "ff:ff:ff:ff:ff:ff"
			}
			iface.Addresses = append(iface.Addresses, link)
		}
		result = append(result, iface)
	}
	return result, nil
}

// convertAddress classifies one provider address.
func convertAddress(ra RawAddress, broadcast bool) models.Address {
	addr := models.Address{Address: ra.Addr, Peer: ra.Peer}

	if ra.Family != "" {
		fam, ok := providerFamilies[ra.Family]
		if !ok {
			addr.Family = models.Family(ra.Family)
			return addr
		}
		addr.Family = fam
		if fam == models.FamilyLink {
			return addr
		}
	}

	ip, ipnet, err := net.ParseCIDR(ra.Addr)
	if err != nil {
		ip = net.ParseIP(ra.Addr)
		if ip == nil {
			if addr.Family == "" {
				addr.Family = familyUnknown
			}
			return addr
		}
	}

	addr.Address = ip.String()
	v4 := ip.To4()
	if addr.Family == "" {
		if v4 != nil {
			addr.Family = models.FamilyIPv4
		} else {
			addr.Family = models.FamilyIPv6
		}
	}
	if ipnet == nil {
		return addr
	}

	mask := ipnet.Mask
	if v4 != nil && len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	addr.Netmask = net.IP(mask).String()

	if v4 != nil && broadcast && addr.Peer == "" && len(mask) == net.IPv4len {
		bc := make(net.IP, net.IPv4len)
		for i := range bc {
			bc[i] = v4[i] | ^mask[i]
		}
		addr.Broadcast = bc.String()
	}
	return addr
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

// NetworkCollector collects network interface addresses.
type NetworkCollector struct {
	provider Provider
}

// NewNetworkCollector creates a new network interface collector.
func NewNetworkCollector(p Provider) *NetworkCollector {
	return &NetworkCollector{provider: p}
}

// Kind returns the record kind.
func (c *NetworkCollector) Kind() models.Kind { return models.KindNetInterfaces }

// Collect gathers interface addresses.
func (c *NetworkCollector) Collect(ctx context.Context) (models.Record, error) {
	return SampleNetInterfaces(ctx, c.provider)
}

// IsAvailable returns true: interface listing is available on all platforms.
func (c *NetworkCollector) IsAvailable() bool { return true }
