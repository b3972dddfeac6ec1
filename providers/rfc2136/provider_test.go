package rfc2136

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// authServer answers A queries from a fixed map and records UPDATE messages.
type authServer struct {
	mu      sync.Mutex
	answers map[string]string
	updates []*dns.Msg
	rcode   int
}

func (s *authServer) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := new(dns.Msg)
	m.SetReply(r)

	if r.Opcode == dns.OpcodeUpdate {
		s.updates = append(s.updates, r.Copy())
		m.Rcode = s.rcode
		_ = w.WriteMsg(m)
		return
	}

	q := r.Question[0]
	ip, ok := s.answers[strings.ToLower(q.Name)]
	if !ok {
		m.Rcode = dns.RcodeNameError
	} else if q.Qtype == dns.TypeA {
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
			A:   net.ParseIP(ip),
		})
	}
	_ = w.WriteMsg(m)
}

func (s *authServer) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *authServer) last() *dns.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[len(s.updates)-1]
}

func startAuthServer(t *testing.T, s *authServer) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		Handler:           s,
		NotifyStartedFunc: func() { close(started) },
		// The default accept func answers UPDATE with NOTIMP.
		MsgAcceptFunc: func(dns.Header) dns.MsgAcceptAction { return dns.MsgAccept },
	}
	go func() {
		_ = server.ActivateAndServe()
	}()
	<-started
	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProvider(t *testing.T, addr string) *Provider {
	t.Helper()
	p, err := New(&Config{
		Domain:  "example.com",
		Server:  addr,
		TTL:     120,
		Timeout: 2 * time.Second,
	}, WithProviderLogger(testLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestProvider_Find(t *testing.T) {
	server := &authServer{answers: map[string]string{"home.example.com.": "1.2.3.4"}}
	p := newTestProvider(t, startAuthServer(t, server))

	record, found, err := p.Find(context.Background(), "home")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if !found {
		t.Fatal("expected record")
	}
	if record.ID != "home.example.com." || record.IP != "1.2.3.4" {
		t.Errorf("unexpected record: %+v", record)
	}

	_, found, err = p.Find(context.Background(), "other")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found {
		t.Error("expected no record for NXDOMAIN")
	}
}

func TestProvider_Create(t *testing.T) {
	server := &authServer{}
	p := newTestProvider(t, startAuthServer(t, server))

	if err := p.Create(context.Background(), "home", "5.6.7.8"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	msg := server.last()
	if len(msg.Ns) != 1 {
		t.Fatalf("expected one insert, got %d RRs", len(msg.Ns))
	}
	a := msg.Ns[0].(*dns.A)
	if a.Hdr.Name != "home.example.com." || a.A.String() != "5.6.7.8" || a.Hdr.Ttl != 120 {
		t.Errorf("unexpected insert: %v", a)
	}
}

func TestProvider_Update(t *testing.T) {
	server := &authServer{}
	p := newTestProvider(t, startAuthServer(t, server))

	record := provider.DomainRecord{ID: "home.example.com.", IP: "1.2.3.4"}
	if err := p.Update(context.Background(), record, "5.6.7.8"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if server.updateCount() != 1 {
		t.Fatalf("expected a single UPDATE message, got %d", server.updateCount())
	}
	msg := server.last()
	if len(msg.Ns) != 2 {
		t.Fatalf("expected remove + insert, got %d RRs", len(msg.Ns))
	}
	removed := msg.Ns[0].Header()
	inserted := msg.Ns[1].(*dns.A)
	if removed.Class != dns.ClassANY || removed.Rrtype != dns.TypeA || removed.Name != "home.example.com." {
		t.Errorf("expected the A RRset to be deleted, got %v", removed)
	}
	if inserted.Hdr.Class != dns.ClassINET || inserted.A.String() != "5.6.7.8" {
		t.Errorf("unexpected insert: %v", inserted)
	}
}

func TestProvider_UpdateRefused(t *testing.T) {
	server := &authServer{rcode: dns.RcodeRefused}
	p := newTestProvider(t, startAuthServer(t, server))

	err := p.Update(context.Background(), provider.DomainRecord{ID: "home.example.com.", IP: "1.2.3.4"}, "5.6.7.8")

	var re *provider.RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected *provider.RequestError, got %v", err)
	}
	if re.Operation != "update" || re.Provider != Label {
		t.Errorf("unexpected error details: %+v", re)
	}
}

func TestProvider_CreateInvalidIP(t *testing.T) {
	server := &authServer{}
	p := newTestProvider(t, startAuthServer(t, server))

	if err := p.Create(context.Background(), "home", "2001:db8::1"); err == nil {
		t.Error("expected error for IPv6 address")
	}
	if server.updateCount() != 0 {
		t.Error("no update should reach the server")
	}
}

func TestProvider_Apex(t *testing.T) {
	p := newTestProvider(t, "127.0.0.1:1")

	if got := p.fqdn("@"); got != "example.com." {
		t.Errorf("fqdn(@) = %q", got)
	}
	if got := p.fqdn("home."); got != "home.example.com." {
		t.Errorf("fqdn(home.) = %q", got)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(provider.Config{
		Domain: "dyn.example.com",
		Token:  "c2VjcmV0",
		Settings: map[string]string{
			"SERVER":        "ns1.example.com",
			"ZONE":          "example.com",
			"TSIG_KEY_NAME": "ddns",
			"TIMEOUT":       "5",
			"USE_TCP":       "true",
		},
	})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.TSIGSecret != "c2VjcmV0" {
		t.Errorf("expected token to be used as TSIG secret, got %q", cfg.TSIGSecret)
	}
	if cfg.zone() != "example.com." {
		t.Errorf("unexpected zone %q", cfg.zone())
	}
	if cfg.Timeout != 5*time.Second || !cfg.UseTCP || cfg.TTL != DefaultTTL {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_TokenWithoutKeyName(t *testing.T) {
	cfg, err := LoadConfig(provider.Config{
		Domain:   "example.com",
		Token:    "c2VjcmV0",
		Settings: map[string]string{"SERVER": "ns1.example.com"},
	})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.TSIGSecret != "" {
		t.Error("token must not become a TSIG secret without a key name")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  provider.Config
	}{
		{"missing domain", provider.Config{Settings: map[string]string{"SERVER": "ns1"}}},
		{"missing server", provider.Config{Domain: "example.com"}},
		{"domain outside zone", provider.Config{Domain: "example.com", Settings: map[string]string{"SERVER": "ns1", "ZONE": "example.org"}}},
		{"bad ttl", provider.Config{Domain: "example.com", Settings: map[string]string{"SERVER": "ns1", "TTL": "x"}}},
		{"bad timeout", provider.Config{Domain: "example.com", Settings: map[string]string{"SERVER": "ns1", "TIMEOUT": "soon"}}},
		{"bad use_tcp", provider.Config{Domain: "example.com", Settings: map[string]string{"SERVER": "ns1", "USE_TCP": "maybe"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.cfg)
			if !provider.IsConfigError(err) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	p, err := Factory()(provider.Config{
		Domain:   "example.com",
		Settings: map[string]string{"SERVER": "127.0.0.1:5353"},
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	if p.Name() != Label || p.Domain() != "example.com" {
		t.Errorf("unexpected provider %s/%s", p.Name(), p.Domain())
	}

	_, err = Factory()(provider.Config{Settings: map[string]string{"SERVER": "ns1"}})
	if !provider.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}
