package dnsupdate

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/miekg/dns"
)

// ARecord is an IPv4 address record as seen on the wire.
type ARecord struct {
	Name string // fully qualified owner name
	TTL  uint32
	Addr netip.Addr
}

// NewARecord builds an ARecord, qualifying name if needed.
func NewARecord(name string, addr netip.Addr, ttl uint32) ARecord {
	return ARecord{Name: dns.Fqdn(name), TTL: ttl, Addr: addr}
}

// ParseARecord builds an ARecord from a textual IPv4 address.
func ParseARecord(name, ip string, ttl uint32) (ARecord, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ARecord{}, fmt.Errorf("invalid IPv4 address %q: %w", ip, err)
	}
	if !addr.Is4() {
		return ARecord{}, fmt.Errorf("invalid IPv4 address %q: not an IPv4 address", ip)
	}
	return NewARecord(name, addr, ttl), nil
}

// rr converts the record to a resource record for an UPDATE section.
func (r ARecord) rr() (*dns.A, error) {
	if !r.Addr.Is4() {
		return nil, fmt.Errorf("invalid IPv4 address: %s", r.Addr)
	}
	return &dns.A{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(r.Name),
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    r.TTL,
		},
		A: net.IP(r.Addr.AsSlice()),
	}, nil
}

// fromRR converts an answer RR; ok is false for anything but an A record.
func fromRR(rr dns.RR) (ARecord, bool) {
	a, ok := rr.(*dns.A)
	if !ok {
		return ARecord{}, false
	}
	addr, ok := netip.AddrFromSlice(a.A.To4())
	if !ok {
		return ARecord{}, false
	}
	return ARecord{Name: a.Hdr.Name, TTL: a.Hdr.Ttl, Addr: addr}, true
}
