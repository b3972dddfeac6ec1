// Package discovery determines the host's public IPv4 address.
//
// The default resolver asks an IP-echo name server (OpenDNS) for a special
// name whose answer is the address the query came from. A static resolver
// is available for hosts that already know their address.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/miekg/dns"
)

const (
	// DefaultResolverHost is the IP-echo name server queried for the address.
	DefaultResolverHost = "resolver1.opendns.com"

	// DefaultEchoName is the name the echo server answers with the caller's address.
	DefaultEchoName = "myip.opendns.com"

	// DefaultPort is the port the echo server listens on.
	DefaultPort = 53

	// DefaultTimeout bounds the echo query.
	DefaultTimeout = 5 * time.Second
)

// ErrNoAddress is returned when the echo server answers without an IPv4 address.
var ErrNoAddress = errors.New("no IPv4 address in answer")

// DiscoveryError reports a failure to determine the public address.
type DiscoveryError struct {
	Resolver string
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering public IP via %s: %v", e.Resolver, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// IsDiscoveryError reports whether err is a *DiscoveryError.
func IsDiscoveryError(err error) bool {
	var de *DiscoveryError
	return errors.As(err, &de)
}

// Resolver determines the public IPv4 address of the host.
type Resolver interface {
	Resolve(ctx context.Context) (netip.Addr, error)
}

// LookupFunc resolves a host name to addresses using the system resolver.
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

// DNSResolver discovers the public address with a single A query against an
// IP-echo name server. It never retries.
type DNSResolver struct {
	resolverHost string
	echoName     string
	port         int
	timeout      time.Duration
	lookup       LookupFunc
	logger       *slog.Logger
}

// Option is a functional option for configuring the DNSResolver.
type Option func(*DNSResolver)

// WithResolverHost sets the echo name server, as a host name or IP literal.
func WithResolverHost(host string) Option {
	return func(r *DNSResolver) {
		if host != "" {
			r.resolverHost = host
		}
	}
}

// WithEchoName sets the name queried on the echo server.
func WithEchoName(name string) Option {
	return func(r *DNSResolver) {
		if name != "" {
			r.echoName = name
		}
	}
}

// WithPort sets the echo server port.
func WithPort(port int) Option {
	return func(r *DNSResolver) {
		if port > 0 {
			r.port = port
		}
	}
}

// WithTimeout sets the query timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *DNSResolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithLookup replaces the system lookup of the resolver host.
func WithLookup(lookup LookupFunc) Option {
	return func(r *DNSResolver) {
		if lookup != nil {
			r.lookup = lookup
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *DNSResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewDNSResolver creates a resolver using OpenDNS unless overridden.
func NewDNSResolver(opts ...Option) *DNSResolver {
	r := &DNSResolver{
		resolverHost: DefaultResolverHost,
		echoName:     DefaultEchoName,
		port:         DefaultPort,
		timeout:      DefaultTimeout,
		lookup:       systemLookup,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the address the echo server saw the query come from.
func (r *DNSResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	server, err := r.serverAddr(ctx)
	if err != nil {
		return netip.Addr{}, &DiscoveryError{Resolver: r.resolverHost, Err: err}
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(r.echoName), dns.TypeA)

	client := &dns.Client{Net: "udp", Timeout: r.timeout}

	resp, rtt, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return netip.Addr{}, &DiscoveryError{Resolver: r.resolverHost, Err: err}
	}
	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, &DiscoveryError{
			Resolver: r.resolverHost,
			Err:      fmt.Errorf("server returned %s", dns.RcodeToString[resp.Rcode]),
		}
	}

	for _, rr := range resp.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(a.A.To4())
		if !ok {
			continue
		}

		r.logger.Debug("discovered public IP",
			slog.String("ip", addr.String()),
			slog.String("resolver", server),
			slog.Duration("rtt", rtt),
		)
		return addr, nil
	}

	return netip.Addr{}, &DiscoveryError{Resolver: r.resolverHost, Err: ErrNoAddress}
}

// serverAddr resolves the echo server to the one address that is queried.
func (r *DNSResolver) serverAddr(ctx context.Context) (string, error) {
	if addr, err := netip.ParseAddr(r.resolverHost); err == nil {
		return net.JoinHostPort(addr.String(), strconv.Itoa(r.port)), nil
	}

	addrs, err := r.lookup(ctx, r.resolverHost)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", r.resolverHost, err)
	}
	for _, addr := range addrs {
		if addr.Is4() || addr.Is4In6() {
			return net.JoinHostPort(addr.Unmap().String(), strconv.Itoa(r.port)), nil
		}
	}
	return "", fmt.Errorf("resolving %s: no IPv4 address", r.resolverHost)
}

func systemLookup(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip4", host)
}
