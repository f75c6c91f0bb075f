package network

import (
	"context"
	"fmt"
	"net"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
	"golang.org/x/text/cases"
)

// loopbackAddress is the only address excluded from classification
const loopbackAddress = "127.0.0.1"

// Address is one IPv4 address on one local interface, tagged by naming heuristics.
// IsVirtual and IsPhysical are independent; both may be true.
type Address struct {
	Address    string `json:"address"`
	Interface  string `json:"interface"`
	IsVirtual  bool   `json:"is_virtual"`
	IsPhysical bool   `json:"is_physical"`
}

// Interface is a raw enumeration result: an adapter name and its assigned
// addresses in CIDR ("192.168.1.50/24") or bare form.
type Interface struct {
	Name  string
	Addrs []string
}

// Keywords are the adapter-name fragments that mark an adapter as virtual or physical
type Keywords struct {
	Virtual  []string
	Physical []string
}

// InterfaceSource enumerates local network interfaces
type InterfaceSource interface {
	Interfaces(ctx context.Context) ([]Interface, error)
}

// SystemSource enumerates interfaces through gopsutil
type SystemSource struct{}

// Interfaces returns every interface known to the OS with its addresses
func (SystemSource) Interfaces(ctx context.Context) ([]Interface, error) {
	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate network interfaces: %w", err)
	}

	ifaces := make([]Interface, 0, len(stats))
	for _, st := range stats {
		iface := Interface{Name: st.Name}
		for _, a := range st.Addrs {
			iface.Addrs = append(iface.Addrs, a.Addr)
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

// MatchKeywords reports whether name contains any virtual or physical keyword.
// Matching is a Unicode case-folded substring test.
func MatchKeywords(name string, kw Keywords) (virtual, physical bool) {
	folded := cases.Fold().String(name)
	return containsAny(folded, kw.Virtual), containsAny(folded, kw.Physical)
}

func containsAny(folded string, keywords []string) bool {
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(folded, cases.Fold().String(k)) {
			return true
		}
	}
	return false
}

// Classify produces one Address per (interface, IPv4 address) pair, in enumeration order.
// 127.0.0.1 is skipped, non-IPv4 addresses are ignored and repeats on one interface collapse.
func Classify(ifaces []Interface, kw Keywords) []Address {
	var out []Address

	for _, iface := range ifaces {
		virtualName, physicalName := MatchKeywords(iface.Name, kw)
		seen := make(map[string]bool)

		for _, raw := range iface.Addrs {
			ip := parseIPv4(raw)
			if ip == "" || ip == loopbackAddress || seen[ip] {
				continue
			}
			seen[ip] = true

			out = append(out, Address{
				Address:    ip,
				Interface:  iface.Name,
				IsVirtual:  virtualName || lastOctetIsOne(ip),
				IsPhysical: physicalName,
			})
		}
	}

	return out
}

// parseIPv4 returns the dotted-quad form of raw, or "" if raw is not IPv4
func parseIPv4(raw string) string {
	raw = strings.TrimSpace(raw)
	ip, _, err := net.ParseCIDR(raw)
	if err != nil {
		ip = net.ParseIP(raw)
	}
	if ip == nil {
		return ""
	}
	v4 := ip.To4()
	if v4 == nil {
		return ""
	}
	return v4.String()
}

// lastOctetIsOne is the gateway/virtual-adapter convention: x.y.z.1
func lastOctetIsOne(ip string) bool {
	i := strings.LastIndexByte(ip, '.')
	return i >= 0 && ip[i+1:] == "1"
}

// Classifier ties an interface source to a keyword table
type Classifier struct {
	source   InterfaceSource
	keywords Keywords
}

// NewClassifier creates a classifier. A nil source means the system interfaces.
func NewClassifier(source InterfaceSource, kw Keywords) *Classifier {
	if source == nil {
		source = SystemSource{}
	}
	return &Classifier{source: source, keywords: kw}
}

// Addresses enumerates and classifies local addresses. On enumeration failure it
// returns an empty slice with the error; callers log it and carry on.
func (c *Classifier) Addresses(ctx context.Context) ([]Address, error) {
	ifaces, err := c.source.Interfaces(ctx)
	if err != nil {
		return []Address{}, err
	}
	return Classify(ifaces, c.keywords), nil
}
