package dnsupdate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Sentinel errors for RFC 2136 operations.
var (
	// ErrUpdateFailed is returned when the server rejects an UPDATE.
	ErrUpdateFailed = errors.New("dns update failed")

	// ErrQueryFailed is returned when a record lookup fails.
	ErrQueryFailed = errors.New("dns query failed")

	// ErrAuthenticationFailed is returned when the server rejects the TSIG signature.
	ErrAuthenticationFailed = errors.New("tsig authentication failed")

	// ErrConnectionFailed is returned when the server cannot be reached.
	ErrConnectionFailed = errors.New("connection to dns server failed")

	// ErrZoneMismatch is returned when a name is outside the configured zone.
	ErrZoneMismatch = errors.New("name is not in the configured zone")
)

// Client sends queries and UPDATE messages to one authoritative server.
type Client struct {
	config    *Config
	tsig      *TSIG
	dnsClient *dns.Client
	logger    *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the configured server and zone.
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		return nil, errors.New("dnsupdate config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tsig, err := tsigFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("invalid tsig configuration: %w", err)
	}

	c := &Client{
		config: config,
		tsig:   tsig,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.dnsClient = &dns.Client{
		Net:     "udp",
		Timeout: config.EffectiveTimeout(),
	}
	if config.UseTCP {
		c.dnsClient.Net = "tcp"
	}
	tsig.applyToClient(c.dnsClient)

	c.logger.Debug("dnsupdate client initialized",
		slog.String("server", config.Address()),
		slog.String("zone", config.Zone),
		slog.Bool("tsig", tsig != nil),
		slog.String("net", c.dnsClient.Net),
	)

	return c, nil
}

// Zone returns the configured zone.
func (c *Client) Zone() string {
	return c.config.Zone
}

// Server returns the server address including port.
func (c *Client) Server() string {
	return c.config.Address()
}

// Ping checks that the server answers authoritatively for the zone.
func (c *Client) Ping(ctx context.Context) error {
	msg := new(dns.Msg)
	msg.SetQuestion(c.config.Zone, dns.TypeSOA)
	msg.RecursionDesired = false

	resp, rtt, err := c.exchange(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return fmt.Errorf("%w: server returned %s", ErrConnectionFailed, dns.RcodeToString[resp.Rcode])
	}

	c.logger.Debug("dns server ping successful", slog.Duration("rtt", rtt))
	return nil
}

// QueryA returns the A records currently published for name. A name that
// does not exist yields an empty slice.
func (c *Client) QueryA(ctx context.Context, name string) ([]ARecord, error) {
	fqdn := dns.Fqdn(name)
	if !c.inZone(fqdn) {
		return nil, fmt.Errorf("%w: %s not in %s", ErrZoneMismatch, fqdn, c.config.Zone)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeA)
	msg.RecursionDesired = false

	resp, _, err := c.exchange(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	if resp.Rcode == dns.RcodeNameError {
		return []ARecord{}, nil
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: server returned %s", ErrQueryFailed, dns.RcodeToString[resp.Rcode])
	}

	records := make([]ARecord, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		if record, ok := fromRR(rr); ok {
			records = append(records, record)
		}
	}

	c.logger.Debug("dns query complete",
		slog.String("name", fqdn),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// Insert adds record to the zone.
func (c *Client) Insert(ctx context.Context, record ARecord) error {
	rr, err := c.prepare(record)
	if err != nil {
		return err
	}

	msg := new(dns.Msg)
	msg.SetUpdate(c.config.Zone)
	msg.Insert([]dns.RR{rr})

	if err := c.send(ctx, msg); err != nil {
		return err
	}

	c.logger.Debug("dns record inserted",
		slog.String("name", rr.Hdr.Name),
		slog.String("ip", record.Addr.String()),
	)
	return nil
}

// Replace deletes every A record of old's name and inserts updated, in a
// single UPDATE message. Stale duplicates are removed along with old.
func (c *Client) Replace(ctx context.Context, old, updated ARecord) error {
	oldRR, err := c.prepare(old)
	if err != nil {
		return fmt.Errorf("old record: %w", err)
	}
	newRR, err := c.prepare(updated)
	if err != nil {
		return fmt.Errorf("new record: %w", err)
	}

	msg := new(dns.Msg)
	msg.SetUpdate(c.config.Zone)
	msg.RemoveRRset([]dns.RR{oldRR})
	msg.Insert([]dns.RR{newRR})

	if err := c.send(ctx, msg); err != nil {
		return err
	}

	c.logger.Debug("dns record replaced",
		slog.String("name", newRR.Hdr.Name),
		slog.String("old_ip", old.Addr.String()),
		slog.String("ip", updated.Addr.String()),
	)
	return nil
}

func (c *Client) prepare(record ARecord) (*dns.A, error) {
	if record.Name == "" {
		return nil, errors.New("record name is required")
	}
	rr, err := record.rr()
	if err != nil {
		return nil, err
	}
	if !c.inZone(rr.Hdr.Name) {
		return nil, fmt.Errorf("%w: %s not in %s", ErrZoneMismatch, rr.Hdr.Name, c.config.Zone)
	}
	return rr, nil
}

func (c *Client) send(ctx context.Context, msg *dns.Msg) error {
	c.tsig.sign(msg)

	resp, _, err := c.exchange(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	return checkResponse(resp)
}

// exchange runs the blocking miekg/dns exchange so ctx can abandon it.
func (c *Client) exchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	type result struct {
		resp *dns.Msg
		rtt  time.Duration
		err  error
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	ch := make(chan result, 1)
	go func() {
		resp, rtt, err := c.dnsClient.Exchange(msg, c.config.Address())
		ch <- result{resp, rtt, err}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case r := <-ch:
		return r.resp, r.rtt, r.err
	}
}

func (c *Client) inZone(fqdn string) bool {
	return dns.IsSubDomain(strings.ToLower(c.config.Zone), strings.ToLower(fqdn))
}

func checkResponse(resp *dns.Msg) error {
	if resp == nil {
		return fmt.Errorf("%w: no response from server", ErrUpdateFailed)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		return nil
	case dns.RcodeNotAuth:
		if resp.IsTsig() != nil {
			return fmt.Errorf("%w: %s", ErrAuthenticationFailed, dns.RcodeToString[resp.Rcode])
		}
		return fmt.Errorf("%w: server not authoritative for zone", ErrUpdateFailed)
	case dns.RcodeRefused:
		return fmt.Errorf("%w: update refused (check server policy or tsig key)", ErrUpdateFailed)
	case dns.RcodeNotZone:
		return ErrZoneMismatch
	default:
		return fmt.Errorf("%w: %s", ErrUpdateFailed, dns.RcodeToString[resp.Rcode])
	}
}

// IsAuthError reports whether err is a TSIG authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed)
}
