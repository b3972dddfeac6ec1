package cloudflare

import (
	"log/slog"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/httputil"
	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// Factory returns a provider.Factory for the Cloudflare provider.
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

		httpClient := httputil.NewClient(&httputil.ClientConfig{
			Timeout:       cfg.HTTP.Timeout,
			TLSSkipVerify: cfg.HTTP.TLSSkipVerify,
			UserAgent:     cfg.HTTP.UserAgent,
			Logger:        logger,
		})

		if cfg.HTTP.TLSSkipVerify {
			logger.Warn("TLS certificate verification disabled",
				slog.String("provider", Label),
			)
		}

		return New(providerCfg,
			WithHTTPClient(httpClient),
			WithLogger(logger),
		)
	}
}
