package rfc2136

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// Label is the registry label of this provider.
const Label = "rfc2136"

// Provider implements provider.RecordProvider for RFC 2136 servers.
type Provider struct {
	domain string
	ttl    uint32
	client *dnsupdate.Client
	logger *slog.Logger
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a new RFC 2136 provider.
func New(config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, provider.ErrConfigMissing("config")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		domain: config.Domain,
		ttl:    uint32(config.TTL),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	client, err := dnsupdate.NewClient(config.toDNSUpdateConfig(), dnsupdate.WithLogger(p.logger))
	if err != nil {
		return nil, provider.ErrConfigInvalid("server", config.Server, err.Error())
	}
	p.client = client

	return p, nil
}

// Name returns "rfc2136".
func (p *Provider) Name() string {
	return Label
}

// Domain returns the configured domain.
func (p *Provider) Domain() string {
	return p.domain
}

// Ping queries the zone's SOA on the configured server.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return provider.WrapRequestError(Label, "ping", 0, err)
	}
	return nil
}

// Find returns the first A record published for hostName. The record ID is
// the fully qualified owner name.
func (p *Provider) Find(ctx context.Context, hostName string) (provider.DomainRecord, bool, error) {
	fqdn := p.fqdn(hostName)

	records, err := p.client.QueryA(ctx, fqdn)
	if err != nil {
		return provider.DomainRecord{}, false, p.failure("find", err)
	}
	if len(records) == 0 {
		return provider.DomainRecord{}, false, nil
	}

	return provider.DomainRecord{
		ID: fqdn,
		IP: records[0].Addr.String(),
	}, true, nil
}

// Create inserts an A record for hostName.
func (p *Provider) Create(ctx context.Context, hostName, ip string) error {
	record, err := dnsupdate.ParseARecord(p.fqdn(hostName), ip, p.ttl)
	if err != nil {
		return provider.WrapRequestError(Label, "create", 0, err)
	}

	if err := p.client.Insert(ctx, record); err != nil {
		return p.failure("create", err)
	}

	p.logger.Info("created record",
		slog.String("provider", Label),
		slog.String("name", record.Name),
		slog.String("ip", ip),
		slog.String("server", p.client.Server()),
	)
	return nil
}

// Update replaces every A record of the name with one pointing at ip, in a
// single UPDATE.
func (p *Provider) Update(ctx context.Context, record provider.DomainRecord, ip string) error {
	if record.ID == "" {
		return provider.WrapRequestError(Label, "update", 0, fmt.Errorf("record has no id"))
	}

	old, err := dnsupdate.ParseARecord(record.ID, record.IP, p.ttl)
	if err != nil {
		return provider.WrapRequestError(Label, "update", 0, fmt.Errorf("current record: %w", err))
	}
	updated, err := dnsupdate.ParseARecord(record.ID, ip, p.ttl)
	if err != nil {
		return provider.WrapRequestError(Label, "update", 0, err)
	}

	if err := p.client.Replace(ctx, old, updated); err != nil {
		return p.failure("update", err)
	}

	p.logger.Info("updated record",
		slog.String("provider", Label),
		slog.String("name", updated.Name),
		slog.String("old_ip", record.IP),
		slog.String("ip", ip),
	)
	return nil
}

// fqdn qualifies hostName with the domain; "@" and "" name the apex.
func (p *Provider) fqdn(hostName string) string {
	hostName = strings.TrimSuffix(hostName, ".")
	if hostName == "" || hostName == "@" {
		return dns.Fqdn(p.domain)
	}
	return dns.Fqdn(hostName + "." + p.domain)
}

func (p *Provider) failure(operation string, err error) error {
	if dnsupdate.IsAuthError(err) {
		err = fmt.Errorf("%w: %w", provider.ErrUnauthorized, err)
	}
	return provider.WrapRequestError(Label, operation, 0, err)
}

// Ensure Provider implements the provider interfaces at compile time.
var (
	_ provider.RecordProvider = (*Provider)(nil)
	_ provider.Pinger         = (*Provider)(nil)
)
