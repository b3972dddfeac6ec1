package cloudflare

import (
	"strconv"
	"strings"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// DefaultTTL is the TTL for created records. 1 means "automatic".
const DefaultTTL = 1

// Config holds Cloudflare-specific configuration.
type Config struct {
	Domain  string // Zone name, also used to look up ZoneID
	Token   string // API token (Bearer authentication)
	ZoneID  string // Zone ID, skips the lookup when set
	APIURL  string // Override for the API base URL
	TTL     int
	Proxied bool // Whether created records are proxied through Cloudflare
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return provider.ErrConfigMissing("domain")
	}
	if c.Token == "" {
		return provider.ErrConfigMissing("token")
	}
	if c.TTL < 0 {
		return provider.ErrConfigInvalid("ttl", strconv.Itoa(c.TTL), "must be non-negative")
	}
	// Cloudflare minimum TTL is 60 seconds, 1 is automatic
	if c.TTL > 1 && c.TTL < 60 {
		return provider.ErrConfigInvalid("ttl", strconv.Itoa(c.TTL), "must be at least 60 seconds (or 1 for automatic)")
	}
	return nil
}

// LoadConfig builds a Config from the generic provider configuration.
//
// Supported settings:
//   - ZONE_ID: zone identifier (optional, looked up from the domain otherwise)
//   - API_URL: API base URL (optional)
//   - TTL: TTL for written records (optional, defaults to automatic)
//   - PROXIED: proxy created records through Cloudflare (optional)
func LoadConfig(cfg provider.Config) (*Config, error) {
	c := &Config{
		Domain: strings.TrimSuffix(strings.TrimSpace(cfg.Domain), "."),
		Token:  strings.TrimSpace(cfg.Token),
		ZoneID: cfg.Setting("ZONE_ID"),
		APIURL: cfg.Setting("API_URL"),
		TTL:    DefaultTTL,
	}

	if ttlStr := cfg.Setting("TTL"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return nil, provider.ErrConfigInvalid("ttl", ttlStr, "must be an integer")
		}
		c.TTL = ttl
	}

	if proxiedStr := cfg.Setting("PROXIED"); proxiedStr != "" {
		proxied, err := strconv.ParseBool(proxiedStr)
		if err != nil {
			return nil, provider.ErrConfigInvalid("proxied", proxiedStr, "must be a boolean")
		}
		c.Proxied = proxied
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}
