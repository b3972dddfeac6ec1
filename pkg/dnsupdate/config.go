package dnsupdate

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// DefaultPort is the standard DNS port.
	DefaultPort = 53

	// DefaultTimeout bounds each exchange with the server.
	DefaultTimeout = 10 * time.Second

	// DefaultTSIGAlgorithm is used when no algorithm is configured.
	DefaultTSIGAlgorithm = dns.HmacSHA256
)

// Config holds RFC 2136 client configuration.
type Config struct {
	// Server is host or host:port of the authoritative server.
	Server string

	// Zone is the zone apex the updates are sent for, with trailing dot.
	Zone string

	// TSIGKeyName, TSIGSecret and TSIGAlgorithm configure transaction
	// signatures. Leaving key name and secret empty disables TSIG.
	TSIGKeyName   string
	TSIGSecret    string
	TSIGAlgorithm string

	Timeout time.Duration

	// UseTCP switches the transport from UDP to TCP.
	UseTCP bool
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server == "" {
		errs = append(errs, "server is required")
	}

	if c.Zone == "" {
		errs = append(errs, "zone is required")
	} else if !dns.IsFqdn(c.Zone) {
		errs = append(errs, fmt.Sprintf("zone %q must end with a dot", c.Zone))
	}

	if c.TSIGKeyName != "" || c.TSIGSecret != "" {
		if c.TSIGKeyName == "" {
			errs = append(errs, "tsig key name is required when a tsig secret is set")
		}
		if c.TSIGSecret == "" {
			errs = append(errs, "tsig secret is required when a tsig key name is set")
		}
		if !isValidAlgorithm(c.Algorithm()) {
			errs = append(errs, fmt.Sprintf("unsupported tsig algorithm %q", c.TSIGAlgorithm))
		}
	}

	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("dnsupdate config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Address returns the server address with a port, defaulting to 53.
func (c *Config) Address() string {
	if c.Server == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(c.Server); err == nil {
		return c.Server
	}
	return net.JoinHostPort(strings.Trim(c.Server, "[]"), strconv.Itoa(DefaultPort))
}

// EffectiveTimeout returns the configured timeout or DefaultTimeout.
func (c *Config) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Algorithm returns the TSIG algorithm in miekg/dns form.
func (c *Config) Algorithm() string {
	return normalizeAlgorithm(c.TSIGAlgorithm)
}

// HasTSIG reports whether transaction signatures are configured.
func (c *Config) HasTSIG() bool {
	return c.TSIGKeyName != "" && c.TSIGSecret != ""
}
