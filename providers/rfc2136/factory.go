package rfc2136

import (
	"log/slog"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// Factory returns a provider.Factory for the RFC 2136 provider.
func Factory() provider.Factory {
	return func(cfg provider.Config) (provider.RecordProvider, error) {
		providerCfg, err := LoadConfig(cfg)
		if err != nil {
			return nil, err
		}

		logger := cfg.Logger
		if logger == nil {
			logger = slog.Default()
		}

		p, err := New(providerCfg, WithProviderLogger(logger))
		if err != nil {
			return nil, err
		}

		logger.Debug("rfc2136 provider created",
			slog.String("server", providerCfg.Server),
			slog.String("zone", providerCfg.zone()),
			slog.Bool("tsig", providerCfg.TSIGKeyName != ""),
			slog.Bool("tcp", providerCfg.UseTCP),
		)

		return p, nil
	}
}
