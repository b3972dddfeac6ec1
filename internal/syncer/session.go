// Package syncer keeps a provider's A record in step with the host's public
// IPv4 address.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/dnsyncmyip/internal/discovery"
	"gitlab.bluewillows.net/root/dnsyncmyip/internal/metrics"
	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// Session synchronizes records through one provider. A Session holds no
// record state between calls and can be reused for several host names.
type Session struct {
	provider provider.RecordProvider
	resolver discovery.Resolver
	dryRun   bool
	logger   *slog.Logger
}

// Option is a functional option for configuring the Session.
type Option func(*Session)

// WithResolver sets how the public address is discovered.
func WithResolver(resolver discovery.Resolver) Option {
	return func(s *Session) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithLogger sets a custom logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDryRun makes Sync decide on an action without writing it.
func WithDryRun(dryRun bool) Option {
	return func(s *Session) {
		s.dryRun = dryRun
	}
}

// New creates a Session for p. The default resolver is the OpenDNS echo
// resolver.
func New(p provider.RecordProvider, opts ...Option) (*Session, error) {
	if p == nil {
		return nil, provider.ErrConfigMissing("provider")
	}

	s := &Session{
		provider: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.resolver == nil {
		s.resolver = discovery.NewDNSResolver(discovery.WithLogger(s.logger))
	}

	return s, nil
}

// Provider returns the provider the session writes through.
func (s *Session) Provider() provider.RecordProvider {
	return s.provider
}

// DiscoverPublicIP returns the host's public IPv4 address. Every failure is
// a *discovery.DiscoveryError.
func (s *Session) DiscoverPublicIP(ctx context.Context) (netip.Addr, error) {
	addr, err := s.resolver.Resolve(ctx)
	if err != nil {
		if !discovery.IsDiscoveryError(err) {
			err = &discovery.DiscoveryError{Resolver: fmt.Sprintf("%T", s.resolver), Err: err}
		}
		return netip.Addr{}, err
	}
	if !addr.Is4() {
		return netip.Addr{}, &discovery.DiscoveryError{
			Resolver: fmt.Sprintf("%T", s.resolver),
			Err:      fmt.Errorf("%w: got %s", discovery.ErrNoAddress, addr),
		}
	}
	return addr, nil
}

// Sync points hostName's A record at the current public address. It writes
// at most once: create when no record exists, update when the record is
// stale, nothing when it already matches.
func (s *Session) Sync(ctx context.Context, hostName string) (*Result, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, provider.ErrConfigMissing("host_name")
	}

	result := &Result{
		Provider:  s.provider.Name(),
		Domain:    s.provider.Domain(),
		Host:      hostName,
		DryRun:    s.dryRun,
		StartedAt: time.Now(),
	}
	logger := s.logger.With(
		slog.String("provider", result.Provider),
		slog.String("domain", result.Domain),
		slog.String("host", hostName),
	)

	err := s.sync(ctx, result, logger)
	result.Duration = time.Since(result.StartedAt)
	metrics.SyncDuration.Observe(result.Duration.Seconds())

	if err != nil {
		metrics.SyncsTotal.WithLabelValues(metrics.ResultError).Inc()
		logger.Error("sync failed", slog.String("error", err.Error()))
		return nil, err
	}

	metrics.SyncsTotal.WithLabelValues(resultLabel(result.Action)).Inc()
	metrics.LastSyncTimestamp.SetToCurrentTime()

	logger.Info("sync complete",
		slog.String("action", string(result.Action)),
		slog.String("ip", result.IP),
		slog.String("previous_ip", result.PreviousIP),
		slog.Bool("dry_run", result.DryRun),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

func (s *Session) sync(ctx context.Context, result *Result, logger *slog.Logger) error {
	addr, err := s.DiscoverPublicIP(ctx)
	if err != nil {
		metrics.DiscoveryFailuresTotal.Inc()
		return err
	}
	result.IP = addr.String()
	metrics.SetPublicIP(result.IP)

	record, found, err := s.provider.Find(ctx, result.Host)
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues(result.Provider, "find").Inc()
		return fmt.Errorf("finding record: %w", err)
	}

	switch {
	case !found:
		result.Action = ActionCreate
	case !sameAddress(record.IP, addr):
		result.Action = ActionUpdate
		result.PreviousIP = record.IP
	default:
		result.Action = ActionNone
		result.PreviousIP = record.IP
		return nil
	}

	if s.dryRun {
		logger.Info("dry-run: skipping record write",
			slog.String("action", string(result.Action)),
			slog.String("ip", result.IP),
		)
		return nil
	}

	switch result.Action {
	case ActionCreate:
		err = s.provider.Create(ctx, result.Host, result.IP)
	case ActionUpdate:
		err = s.provider.Update(ctx, record, result.IP)
	}
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues(result.Provider, string(result.Action)).Inc()
		return fmt.Errorf("%s record: %w", result.Action, err)
	}

	metrics.RecordWritesTotal.WithLabelValues(result.Provider, string(result.Action)).Inc()
	return nil
}

// sameAddress compares a provider's textual address with addr, falling back
// to string equality when the provider's value does not parse.
func sameAddress(recorded string, addr netip.Addr) bool {
	if parsed, err := netip.ParseAddr(strings.TrimSpace(recorded)); err == nil {
		return parsed.Unmap() == addr
	}
	return recorded == addr.String()
}

func resultLabel(action Action) string {
	switch action {
	case ActionCreate:
		return metrics.ResultCreated
	case ActionUpdate:
		return metrics.ResultUpdated
	default:
		return metrics.ResultUnchanged
	}
}
