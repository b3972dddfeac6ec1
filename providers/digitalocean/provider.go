package digitalocean

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/httputil"
	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// Label is the registry label of this provider.
const Label = "digitalocean"

// Provider implements provider.RecordProvider for DigitalOcean DNS.
type Provider struct {
	domain   string
	ttl      int
	maxPages int
	client   *Client
	logger   *slog.Logger
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithProviderHTTPClient sets the HTTP client used for API calls.
func WithProviderHTTPClient(httpClient *http.Client) ProviderOption {
	return func(o *providerOptions) {
		o.httpClient = httpClient
	}
}

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(o *providerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a new DigitalOcean provider. Missing domain or token is
// reported immediately as a *provider.ConfigError.
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

	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIEndpoint
	}

	client, err := NewClient(apiURL, config.Token,
		WithHTTPClient(o.httpClient),
		WithLogger(o.logger),
	)
	if err != nil {
		return nil, provider.ErrConfigInvalid("api_url", apiURL, err.Error())
	}

	return &Provider{
		domain:   config.Domain,
		ttl:      config.TTL,
		maxPages: config.MaxPages,
		client:   client,
		logger:   o.logger,
	}, nil
}

// Name returns "digitalocean".
func (p *Provider) Name() string {
	return Label
}

// Domain returns the configured domain.
func (p *Provider) Domain() string {
	return p.domain
}

// Ping checks connectivity and credentials using the account endpoint.
func (p *Provider) Ping(ctx context.Context) error {
	resp, err := p.client.Get(ctx, "account")
	if err != nil {
		return provider.WrapRequestError(Label, "ping", 0, err)
	}
	if !resp.OK() {
		return p.failure("ping", resp)
	}
	return nil
}

// Find scans the domain's records page by page for an A record named
// hostName, following the API's next links until a match is found or the
// last page is reached.
func (p *Provider) Find(ctx context.Context, hostName string) (provider.DomainRecord, bool, error) {
	link := fmt.Sprintf("domains/%s/records?per_page=%d", url.PathEscape(p.domain), DefaultPerPage)

	for page := 1; ; page++ {
		if page > p.maxPages {
			return provider.DomainRecord{}, false, provider.WrapRequestError(Label, "find", 0,
				fmt.Errorf("%w: gave up after %d pages", provider.ErrTooManyPages, p.maxPages))
		}

		var resp *httputil.Response
		var err error
		if page == 1 {
			resp, err = p.client.Get(ctx, link)
		} else {
			resp, err = p.client.FollowLink(ctx, link)
		}
		if err != nil {
			return provider.DomainRecord{}, false, provider.WrapRequestError(Label, "find", 0, err)
		}
		if !resp.OK() {
			return provider.DomainRecord{}, false, p.failure("find", resp)
		}

		var result recordsResponse
		if err := resp.Decode(&result); err != nil {
			return provider.DomainRecord{}, false, provider.WrapRequestError(Label, "find", resp.StatusCode, err)
		}

		for _, r := range result.DomainRecords {
			if r.Type == provider.RecordTypeA && r.Name == hostName {
				record := provider.DomainRecord{
					ID: strconv.FormatInt(r.ID, 10),
					IP: r.Data,
				}
				p.logger.Debug("found record",
					slog.String("domain", p.domain),
					slog.String("host", hostName),
					slog.String("id", record.ID),
					slog.String("ip", record.IP),
					slog.Int("page", page),
				)
				return record, true, nil
			}
		}

		link = result.Links.next()
		if link == "" {
			p.logger.Debug("record not found",
				slog.String("domain", p.domain),
				slog.String("host", hostName),
				slog.Int("pages", page),
			)
			return provider.DomainRecord{}, false, nil
		}
	}
}

// Create adds a new A record for hostName.
func (p *Provider) Create(ctx context.Context, hostName, ip string) error {
	path := fmt.Sprintf("domains/%s/records", url.PathEscape(p.domain))
	body := createRecordRequest{
		Type: provider.RecordTypeA,
		Name: hostName,
		Data: ip,
		TTL:  p.ttl,
	}

	resp, err := p.client.Post(ctx, path, body)
	if err != nil {
		return provider.WrapRequestError(Label, "create", 0, err)
	}
	if !resp.OK() {
		return p.failure("create", resp)
	}

	p.logger.Info("created record",
		slog.String("provider", Label),
		slog.String("domain", p.domain),
		slog.String("host", hostName),
		slog.String("ip", ip),
	)

	return nil
}

// Update points the existing record at ip.
func (p *Provider) Update(ctx context.Context, record provider.DomainRecord, ip string) error {
	if record.ID == "" {
		return provider.WrapRequestError(Label, "update", 0, errors.New("record has no id"))
	}

	path := fmt.Sprintf("domains/%s/records/%s", url.PathEscape(p.domain), url.PathEscape(record.ID))

	resp, err := p.client.Put(ctx, path, updateRecordRequest{Data: ip})
	if err != nil {
		return provider.WrapRequestError(Label, "update", 0, err)
	}
	if !resp.OK() {
		return p.failure("update", resp)
	}

	p.logger.Info("updated record",
		slog.String("provider", Label),
		slog.String("domain", p.domain),
		slog.String("id", record.ID),
		slog.String("old_ip", record.IP),
		slog.String("ip", ip),
	)

	return nil
}

// failure converts a non-success response into a *provider.RequestError.
func (p *Provider) failure(operation string, resp *httputil.Response) error {
	err := errors.New(describeError(resp))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		err = fmt.Errorf("%w: %s", provider.ErrUnauthorized, err)
	}
	return provider.WrapRequestError(Label, operation, resp.StatusCode, err)
}

// Ensure Provider implements the provider interfaces at compile time.
var (
	_ provider.RecordProvider = (*Provider)(nil)
	_ provider.Pinger         = (*Provider)(nil)
)
