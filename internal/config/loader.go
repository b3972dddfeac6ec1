package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDotEnv is the dotenv file read when present.
const DefaultDotEnv = ".env"

type loadOptions struct {
	configFile string
	dotEnv     string
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithConfigFile sets the configuration file path. It takes precedence over
// DNSYNCMYIP_CONFIG.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.configFile = path
	}
}

// WithDotEnv sets the dotenv file path. An empty path disables dotenv loading.
func WithDotEnv(path string) LoadOption {
	return func(o *loadOptions) {
		o.dotEnv = path
	}
}

// Load builds the configuration from defaults, the optional configuration
// file and the environment, then validates it. All problems are reported
// together in a *ValidationError.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{dotEnv: DefaultDotEnv}
	for _, opt := range opts {
		opt(o)
	}

	var errs []string

	// Variables already in the environment are never overridden.
	if o.dotEnv != "" {
		if err := godotenv.Load(o.dotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, "dotenv "+o.dotEnv+": "+err.Error())
		}
	}

	cfg := defaults()

	path := o.configFile
	if path == "" {
		path = getEnv("CONFIG")
	}
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			errs = append(errs, "config file: "+err.Error())
		} else {
			slog.Debug("loaded configuration from file", slog.String("path", path))
			cfg.ConfigFile = path
			errs = append(errs, fileCfg.apply(cfg)...)
		}
	}

	errs = append(errs, applyEnv(cfg)...)
	errs = append(errs, validateConfig(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// applyEnv overrides cfg with every DNSYNCMYIP_* variable that is set.
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getEnv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := getEnv("PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := getEnv("DOMAIN_NAME"); v != "" {
		cfg.Domain = v
	}
	if v := getEnv("HOST_NAME"); v != "" {
		cfg.Host = v
	}

	token, err := getEnvOrFile("TOKEN")
	if err != nil {
		errs = append(errs, EnvPrefix+"TOKEN_FILE: "+err.Error())
	} else if token != "" {
		cfg.Token = token
	}

	settings, settingErrs := providerEnv(cfg.Provider)
	errs = append(errs, settingErrs...)
	for k, v := range settings {
		cfg.ProviderSettings[k] = v
	}
	// The provider-scoped token is more specific than the shared one.
	if scoped, ok := cfg.ProviderSettings["TOKEN"]; ok {
		if scoped != "" {
			cfg.Token = scoped
		}
		delete(cfg.ProviderSettings, "TOKEN")
	}

	if v := getEnv("DRY_RUN"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			errs = append(errs, EnvPrefix+"DRY_RUN: invalid boolean "+strconv.Quote(v))
		} else {
			cfg.DryRun = b
		}
	}

	if v := getEnv("INTERVAL"); v != "" {
		interval, err := parseInterval(v)
		if err != nil {
			errs = append(errs, EnvPrefix+"INTERVAL: "+err.Error())
		} else {
			cfg.Interval = interval
		}
	}

	if v := getEnv("HEALTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, EnvPrefix+"HEALTH_PORT: invalid integer "+strconv.Quote(v))
		} else {
			cfg.HealthPort = port
		}
	}

	if v := getEnv("HTTP_TIMEOUT"); v != "" {
		timeout, err := parsePositiveDuration(v)
		if err != nil {
			errs = append(errs, EnvPrefix+"HTTP_TIMEOUT: "+err.Error())
		} else {
			cfg.HTTPTimeout = timeout
		}
	}

	if v := getEnv("TLS_SKIP_VERIFY"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			errs = append(errs, EnvPrefix+"TLS_SKIP_VERIFY: invalid boolean "+strconv.Quote(v))
		} else {
			cfg.TLSSkipVerify = b
		}
	}

	if v := getEnv("IP"); v != "" {
		cfg.StaticIP = v
	}
	if v := getEnv("RESOLVER_SERVER"); v != "" {
		cfg.ResolverServer = v
	}
	if v := getEnv("MYIP_HOST"); v != "" {
		cfg.EchoName = v
	}

	return errs
}

// parseInterval accepts a Go duration or a bare number of seconds.
// "0" disables the loop.
func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative interval %q", s)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative interval %q", s)
	}
	return d, nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
