package digitalocean

import (
	"strconv"
	"strings"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

const (
	// DefaultAPIEndpoint is the base URI of the DigitalOcean v2 API.
	DefaultAPIEndpoint = "https://api.digitalocean.com/v2/"

	// DefaultPerPage is the page size requested when listing records.
	DefaultPerPage = 100

	// DefaultMaxPages bounds how many pages Find will follow.
	DefaultMaxPages = 100
)

// Config holds DigitalOcean-specific configuration.
type Config struct {
	Domain   string // Domain managed in the DigitalOcean account
	Token    string // Personal access token (Bearer authentication)
	APIURL   string // Override for the API base URI
	TTL      int    // TTL for created records, 0 lets DigitalOcean pick
	MaxPages int    // Page ceiling for record listing
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
	// DigitalOcean rejects TTLs below 30 seconds
	if c.TTL > 0 && c.TTL < 30 {
		return provider.ErrConfigInvalid("ttl", strconv.Itoa(c.TTL), "must be at least 30 seconds")
	}
	if c.MaxPages < 1 {
		return provider.ErrConfigInvalid("max_pages", strconv.Itoa(c.MaxPages), "must be at least 1")
	}
	return nil
}

// LoadConfig builds a Config from the generic provider configuration.
//
// Supported settings:
//   - API_URL: API base URI (optional, defaults to DefaultAPIEndpoint)
//   - TTL: TTL for created records (optional)
//   - MAX_PAGES: page ceiling for Find (optional, defaults to 100)
func LoadConfig(cfg provider.Config) (*Config, error) {
	c := &Config{
		Domain:   strings.TrimSuffix(strings.TrimSpace(cfg.Domain), "."),
		Token:    strings.TrimSpace(cfg.Token),
		APIURL:   cfg.Setting("API_URL"),
		MaxPages: DefaultMaxPages,
	}

	if c.APIURL == "" {
		c.APIURL = DefaultAPIEndpoint
	}

	if ttlStr := cfg.Setting("TTL"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return nil, provider.ErrConfigInvalid("ttl", ttlStr, "must be an integer")
		}
		c.TTL = ttl
	}

	if pagesStr := cfg.Setting("MAX_PAGES"); pagesStr != "" {
		pages, err := strconv.Atoi(pagesStr)
		if err != nil {
			return nil, provider.ErrConfigInvalid("max_pages", pagesStr, "must be an integer")
		}
		c.MaxPages = pages
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}
