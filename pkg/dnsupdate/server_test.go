package dnsupdate

import (
	"net"
	"net/netip"
	"strings"
	"sync"
	"testing"

	"github.com/miekg/dns"
)

// fakeZone is an in-process authoritative server that answers A queries
// and applies UPDATE messages to an in-memory record set.
type fakeZone struct {
	mu      sync.Mutex
	records map[string][]netip.Addr
	updates []*dns.Msg
	rcode   int
}

func (z *fakeZone) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	z.mu.Lock()
	defer z.mu.Unlock()

	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true

	if r.Opcode == dns.OpcodeUpdate {
		z.updates = append(z.updates, r.Copy())
		if z.rcode != dns.RcodeSuccess {
			m.Rcode = z.rcode
			_ = w.WriteMsg(m)
			return
		}
		for _, rr := range r.Ns {
			hdr := rr.Header()
			if hdr.Class == dns.ClassANY && (hdr.Rrtype == dns.TypeA || hdr.Rrtype == dns.TypeANY) {
				delete(z.records, strings.ToLower(hdr.Name))
				continue
			}
			a, ok := rr.(*dns.A)
			if !ok {
				continue
			}
			name := strings.ToLower(a.Hdr.Name)
			addr, _ := netip.AddrFromSlice(a.A.To4())
			switch a.Hdr.Class {
			case dns.ClassNONE:
				kept := z.records[name][:0]
				for _, existing := range z.records[name] {
					if existing != addr {
						kept = append(kept, existing)
					}
				}
				z.records[name] = kept
			case dns.ClassINET:
				z.records[name] = append(z.records[name], addr)
			}
		}
		_ = w.WriteMsg(m)
		return
	}

	q := r.Question[0]
	switch q.Qtype {
	case dns.TypeSOA:
		m.Answer = append(m.Answer, &dns.SOA{
			Hdr:    dns.RR_Header{Name: q.Name, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: 300},
			Ns:     "ns1." + q.Name,
			Mbox:   "hostmaster." + q.Name,
			Serial: 1,
		})
	case dns.TypeA:
		addrs, ok := z.records[strings.ToLower(q.Name)]
		if !ok {
			m.Rcode = dns.RcodeNameError
		}
		for _, addr := range addrs {
			m.Answer = append(m.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
				A:   net.IP(addr.AsSlice()),
			})
		}
	}
	_ = w.WriteMsg(m)
}

func (z *fakeZone) lastUpdate() *dns.Msg {
	z.mu.Lock()
	defer z.mu.Unlock()
	if len(z.updates) == 0 {
		return nil
	}
	return z.updates[len(z.updates)-1]
}

func (z *fakeZone) addrs(name string) []netip.Addr {
	z.mu.Lock()
	defer z.mu.Unlock()
	return append([]netip.Addr(nil), z.records[name]...)
}

// acceptAll lets UPDATE messages through; the default accept func answers
// them with NOTIMP before the handler runs.
func acceptAll(dns.Header) dns.MsgAcceptAction {
	return dns.MsgAccept
}

// startFakeZone serves zone on a random UDP port and returns its address.
func startFakeZone(t *testing.T, zone *fakeZone) string {
	t.Helper()

	if zone.records == nil {
		zone.records = make(map[string][]netip.Addr)
	}

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		Handler:           zone,
		NotifyStartedFunc: func() { close(started) },
		MsgAcceptFunc:     acceptAll,
	}

	go func() {
		_ = server.ActivateAndServe()
	}()
	<-started

	t.Cleanup(func() {
		_ = server.Shutdown()
	})

	return pc.LocalAddr().String()
}
