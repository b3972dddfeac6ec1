package discovery

import (
	"context"
	"net/netip"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// Static is a Resolver that always returns a fixed address.
type Static struct {
	addr netip.Addr
}

// NewStatic parses ip; anything but an IPv4 address is a configuration error.
func NewStatic(ip string) (*Static, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, provider.ErrConfigInvalid("ip", ip, "not an IP address")
	}
	if !addr.Is4() {
		return nil, provider.ErrConfigInvalid("ip", ip, "must be an IPv4 address")
	}
	return &Static{addr: addr}, nil
}

// Resolve returns the configured address.
func (s *Static) Resolve(ctx context.Context) (netip.Addr, error) {
	if err := ctx.Err(); err != nil {
		return netip.Addr{}, &DiscoveryError{Resolver: "static", Err: err}
	}
	return s.addr, nil
}

var (
	_ Resolver = (*DNSResolver)(nil)
	_ Resolver = (*Static)(nil)
)
