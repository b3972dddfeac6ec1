package rfc2136

import (
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

// DefaultTTL is the TTL of records written by this provider.
const DefaultTTL = 300

// Config holds RFC 2136 provider configuration.
type Config struct {
	Domain        string // Domain record names are relative to
	Zone          string // Zone apex for UPDATE messages, defaults to Domain
	Server        string
	TSIGKeyName   string
	TSIGSecret    string
	TSIGAlgorithm string
	TTL           int
	Timeout       time.Duration
	UseTCP        bool
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return provider.ErrConfigMissing("domain")
	}
	if c.Server == "" {
		return provider.ErrConfigMissing("server")
	}
	if c.TTL < 0 {
		return provider.ErrConfigInvalid("ttl", strconv.Itoa(c.TTL), "must be non-negative")
	}
	if c.TSIGSecret != "" && c.TSIGKeyName == "" {
		return provider.ErrConfigMissing("tsig_key_name")
	}
	zone := c.zone()
	if !dns.IsSubDomain(zone, dns.Fqdn(c.Domain)) {
		return provider.ErrConfigInvalid("zone", c.Zone, "domain "+c.Domain+" is not inside the zone")
	}
	return nil
}

// zone returns the fully qualified zone apex.
func (c *Config) zone() string {
	if c.Zone != "" {
		return dns.Fqdn(strings.ToLower(c.Zone))
	}
	return dns.Fqdn(strings.ToLower(c.Domain))
}

// toDNSUpdateConfig converts to the dnsupdate client configuration.
func (c *Config) toDNSUpdateConfig() *dnsupdate.Config {
	return &dnsupdate.Config{
		Server:        c.Server,
		Zone:          c.zone(),
		TSIGKeyName:   c.TSIGKeyName,
		TSIGSecret:    c.TSIGSecret,
		TSIGAlgorithm: c.TSIGAlgorithm,
		Timeout:       c.Timeout,
		UseTCP:        c.UseTCP,
	}
}

// LoadConfig builds a Config from the generic provider configuration.
func LoadConfig(cfg provider.Config) (*Config, error) {
	c := &Config{
		Domain:        strings.TrimSuffix(strings.TrimSpace(cfg.Domain), "."),
		Zone:          cfg.Setting("ZONE"),
		Server:        cfg.Setting("SERVER"),
		TSIGKeyName:   cfg.Setting("TSIG_KEY_NAME"),
		TSIGSecret:    cfg.Setting("TSIG_SECRET"),
		TSIGAlgorithm: cfg.Setting("TSIG_ALGORITHM"),
		TTL:           DefaultTTL,
	}

	if c.TSIGSecret == "" {
		c.TSIGSecret = strings.TrimSpace(cfg.Token)
	}
	// A token on its own is not a key, only use it when a key name is set
	if c.TSIGKeyName == "" {
		c.TSIGSecret = ""
	}

	if ttlStr := cfg.Setting("TTL"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return nil, provider.ErrConfigInvalid("ttl", ttlStr, "must be an integer")
		}
		c.TTL = ttl
	}

	if timeoutStr := cfg.Setting("TIMEOUT"); timeoutStr != "" {
		timeout, err := parseTimeout(timeoutStr)
		if err != nil {
			return nil, provider.ErrConfigInvalid("timeout", timeoutStr, "must be a duration like 5s or a number of seconds")
		}
		c.Timeout = timeout
	}

	if tcpStr := cfg.Setting("USE_TCP"); tcpStr != "" {
		useTCP, err := strconv.ParseBool(tcpStr)
		if err != nil {
			return nil, provider.ErrConfigInvalid("use_tcp", tcpStr, "must be a boolean")
		}
		c.UseTCP = useTCP
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func parseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
