package config

import (
	"fmt"
	"net/netip"
	"strings"
)

// ValidationError aggregates every configuration problem found by Load.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func validateConfig(cfg *Config) []string {
	var errs []string

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log level: invalid value "+cfg.LogLevel+" (must be debug, info, warn, or error)")
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, "log format: invalid value "+cfg.LogFormat+" (must be json or text)")
	}

	if cfg.Provider == "" {
		errs = append(errs, EnvPrefix+"PROVIDER is required")
	}
	if strings.TrimSpace(cfg.Domain) == "" {
		errs = append(errs, EnvPrefix+"DOMAIN_NAME is required")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		errs = append(errs, EnvPrefix+"HOST_NAME is required")
	}

	if cfg.Interval != 0 && cfg.Interval < MinInterval {
		errs = append(errs, fmt.Sprintf("interval: %s is below the minimum of %s", cfg.Interval, MinInterval))
	}

	if cfg.HealthPort < 1 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("health port: %d out of range", cfg.HealthPort))
	}

	if cfg.StaticIP != "" {
		addr, err := netip.ParseAddr(cfg.StaticIP)
		if err != nil || !addr.Is4() {
			errs = append(errs, EnvPrefix+"IP: "+cfg.StaticIP+" is not an IPv4 address")
		}
	}

	return errs
}
