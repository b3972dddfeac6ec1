package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	cf "github.com/cloudflare/cloudflare-go"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// Label is the registry label of this provider.
const Label = "cloudflare"

// Provider implements provider.RecordProvider for Cloudflare DNS.
type Provider struct {
	domain  string
	ttl     int
	proxied bool
	api     *cf.API
	status  *statusRecorder
	logger  *slog.Logger

	zoneMu sync.Mutex
	zoneID string
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used by the Cloudflare SDK.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(o *providerOptions) {
		o.httpClient = httpClient
	}
}

// WithLogger sets a custom logger for the provider.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(o *providerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a new Cloudflare provider.
func New(config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, provider.ErrConfigMissing("config")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &providerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	httpClient := &http.Client{}
	if o.httpClient != nil {
		clone := *o.httpClient
		httpClient = &clone
	}
	status := &statusRecorder{base: httpClient.Transport}
	httpClient.Transport = status

	// One attempt per call, failures surface to the caller
	apiOpts := []cf.Option{
		cf.UsingRetryPolicy(0, 0, 0),
		cf.HTTPClient(httpClient),
	}
	if config.APIURL != "" {
		apiOpts = append(apiOpts, cf.BaseURL(strings.TrimSuffix(config.APIURL, "/")))
	}

	api, err := cf.NewWithAPIToken(config.Token, apiOpts...)
	if err != nil {
		return nil, provider.ErrConfigInvalid("token", "", err.Error())
	}

	return &Provider{
		domain:  config.Domain,
		ttl:     config.TTL,
		proxied: config.Proxied,
		api:     api,
		status:  status,
		logger:  o.logger,
		zoneID:  config.ZoneID,
	}, nil
}

// Name returns "cloudflare".
func (p *Provider) Name() string {
	return Label
}

// Domain returns the configured domain.
func (p *Provider) Domain() string {
	return p.domain
}

// Ping resolves the zone, which checks both the token and zone access.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.zone(ctx, "ping")
	return err
}

// Find looks up the A record for hostName within the zone.
func (p *Provider) Find(ctx context.Context, hostName string) (provider.DomainRecord, bool, error) {
	zoneID, err := p.zone(ctx, "find")
	if err != nil {
		return provider.DomainRecord{}, false, err
	}

	fqdn := p.fqdn(hostName)
	records, _, err := p.api.ListDNSRecords(ctx, cf.ZoneIdentifier(zoneID), cf.ListDNSRecordsParams{
		Type: provider.RecordTypeA,
		Name: fqdn,
	})
	if err != nil {
		return provider.DomainRecord{}, false, p.failure("find", err)
	}

	for _, r := range records {
		if r.Type == provider.RecordTypeA && strings.EqualFold(r.Name, fqdn) {
			return provider.DomainRecord{ID: r.ID, IP: r.Content}, true, nil
		}
	}

	return provider.DomainRecord{}, false, nil
}

// Create adds a new A record for hostName.
func (p *Provider) Create(ctx context.Context, hostName, ip string) error {
	zoneID, err := p.zone(ctx, "create")
	if err != nil {
		return err
	}

	proxied := p.proxied
	record, err := p.api.CreateDNSRecord(ctx, cf.ZoneIdentifier(zoneID), cf.CreateDNSRecordParams{
		Type:    provider.RecordTypeA,
		Name:    p.fqdn(hostName),
		Content: ip,
		TTL:     p.ttl,
		Proxied: &proxied,
	})
	if err != nil {
		return p.failure("create", err)
	}

	p.logger.Info("created record",
		slog.String("provider", Label),
		slog.String("name", record.Name),
		slog.String("id", record.ID),
		slog.String("ip", ip),
	)
	return nil
}

// Update points the existing record at ip.
func (p *Provider) Update(ctx context.Context, record provider.DomainRecord, ip string) error {
	if record.ID == "" {
		return provider.WrapRequestError(Label, "update", 0, errors.New("record has no id"))
	}

	zoneID, err := p.zone(ctx, "update")
	if err != nil {
		return err
	}

	updated, err := p.api.UpdateDNSRecord(ctx, cf.ZoneIdentifier(zoneID), cf.UpdateDNSRecordParams{
		ID:      record.ID,
		Type:    provider.RecordTypeA,
		Content: ip,
	})
	if err != nil {
		return p.failure("update", err)
	}

	p.logger.Info("updated record",
		slog.String("provider", Label),
		slog.String("name", updated.Name),
		slog.String("id", record.ID),
		slog.String("old_ip", record.IP),
		slog.String("ip", ip),
	)
	return nil
}

// zone returns the zone ID, looking it up by domain name on first use.
func (p *Provider) zone(ctx context.Context, operation string) (string, error) {
	p.zoneMu.Lock()
	defer p.zoneMu.Unlock()

	if p.zoneID != "" {
		return p.zoneID, nil
	}
	if err := ctx.Err(); err != nil {
		return "", provider.WrapRequestError(Label, operation, 0, err)
	}

	zoneID, err := p.api.ZoneIDByName(p.domain)
	if err != nil {
		return "", p.failure(operation, fmt.Errorf("looking up zone %s: %w", p.domain, err))
	}

	p.logger.Debug("resolved zone", slog.String("zone", p.domain), slog.String("zone_id", zoneID))
	p.zoneID = zoneID
	return zoneID, nil
}

// fqdn returns the record name Cloudflare expects; "@" names the apex.
func (p *Provider) fqdn(hostName string) string {
	hostName = strings.TrimSuffix(hostName, ".")
	if hostName == "" || hostName == "@" {
		return p.domain
	}
	return hostName + "." + p.domain
}

func (p *Provider) failure(operation string, err error) error {
	status := p.status.last()
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", provider.ErrUnauthorized, err)
	}
	if status < http.StatusBadRequest {
		status = 0
	}
	return provider.WrapRequestError(Label, operation, status, err)
}

// statusRecorder remembers the status code of the most recent response so
// SDK errors can be reported with the HTTP status that caused them.
type statusRecorder struct {
	base   http.RoundTripper
	status atomic.Int32
}

func (s *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	base := s.base
	if base == nil {
		base = http.DefaultTransport
	}
	s.status.Store(0)
	resp, err := base.RoundTrip(req)
	if resp != nil {
		s.status.Store(int32(resp.StatusCode))
	}
	return resp, err
}

func (s *statusRecorder) last() int {
	return int(s.status.Load())
}

// Ensure Provider implements the provider interfaces at compile time.
var (
	_ provider.RecordProvider = (*Provider)(nil)
	_ provider.Pinger         = (*Provider)(nil)
)
