// Package config loads dnsyncmyip configuration from DNSYNCMYIP_*
// environment variables, an optional .env file and an optional YAML or TOML
// configuration file.
//
// Precedence, highest first: environment, configuration file, defaults.
// Every secret-bearing variable also accepts a _FILE variant naming a file
// that holds the value.
package config

import (
	"log/slog"
	"time"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "DNSYNCMYIP_"

// Defaults.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultProvider    = "digitalocean"
	DefaultHealthPort  = 8080
	DefaultHTTPTimeout = 30 * time.Second
	MinInterval        = 10 * time.Second
)

// Config is the complete runtime configuration.
type Config struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Provider is the registry label of the record provider.
	Provider string
	// Domain is the DNS domain the record lives in.
	Domain string
	// Host is the record name relative to Domain.
	Host string
	// Token is the provider credential.
	Token string
	// ProviderSettings holds provider-specific keys, upper-case.
	ProviderSettings map[string]string

	DryRun bool
	// Interval between syncs; zero runs once and exits.
	Interval   time.Duration
	HealthPort int

	HTTPTimeout   time.Duration
	TLSSkipVerify bool

	// StaticIP bypasses discovery when set.
	StaticIP string
	// ResolverServer and EchoName override the IP-echo resolver.
	ResolverServer string
	EchoName       string

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string
}

func defaults() *Config {
	return &Config{
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		Provider:         DefaultProvider,
		ProviderSettings: make(map[string]string),
		HealthPort:       DefaultHealthPort,
		HTTPTimeout:      DefaultHTTPTimeout,
	}
}

// ProviderConfig returns the factory input for the configured provider.
func (c *Config) ProviderConfig(userAgent string, logger *slog.Logger) provider.Config {
	settings := make(map[string]string, len(c.ProviderSettings))
	for k, v := range c.ProviderSettings {
		settings[k] = v
	}

	return provider.Config{
		Domain:   c.Domain,
		Token:    c.Token,
		Settings: settings,
		HTTP: provider.HTTPConfig{
			Timeout:       c.HTTPTimeout,
			TLSSkipVerify: c.TLSSkipVerify,
			UserAgent:     userAgent,
		},
		Logger: logger,
	}
}

// RunOnce reports whether a single sync should run.
func (c *Config) RunOnce() bool {
	return c.Interval == 0
}
