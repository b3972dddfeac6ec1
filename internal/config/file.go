package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk configuration, in YAML or TOML.
type FileConfig struct {
	Log       *FileLogConfig       `yaml:"log,omitempty" toml:"log"`
	Provider  *FileProviderConfig  `yaml:"provider,omitempty" toml:"provider"`
	Sync      *FileSyncConfig      `yaml:"sync,omitempty" toml:"sync"`
	Discovery *FileDiscoveryConfig `yaml:"discovery,omitempty" toml:"discovery"`
	HTTP      *FileHTTPConfig      `yaml:"http,omitempty" toml:"http"`
	Server    *FileServerConfig    `yaml:"server,omitempty" toml:"server"`
}

// FileLogConfig holds logging settings.
type FileLogConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`
	Format string `yaml:"format,omitempty" toml:"format"`
}

// FileProviderConfig selects and configures the record provider.
type FileProviderConfig struct {
	Name      string         `yaml:"name,omitempty" toml:"name"`
	Token     string         `yaml:"token,omitempty" toml:"token"`
	TokenFile string         `yaml:"token_file,omitempty" toml:"token_file"`
	Settings  map[string]any `yaml:"settings,omitempty" toml:"settings"`
}

// FileSyncConfig names the record and how often it is synced.
type FileSyncConfig struct {
	Domain   string `yaml:"domain,omitempty" toml:"domain"`
	Host     string `yaml:"host,omitempty" toml:"host"`
	Interval string `yaml:"interval,omitempty" toml:"interval"`
	DryRun   *bool  `yaml:"dry_run,omitempty" toml:"dry_run"`
}

// FileDiscoveryConfig overrides public IP discovery.
type FileDiscoveryConfig struct {
	IP       string `yaml:"ip,omitempty" toml:"ip"`
	Resolver string `yaml:"resolver,omitempty" toml:"resolver"`
	EchoName string `yaml:"echo_name,omitempty" toml:"echo_name"`
}

// FileHTTPConfig holds HTTP client settings.
type FileHTTPConfig struct {
	Timeout       string `yaml:"timeout,omitempty" toml:"timeout"`
	TLSSkipVerify *bool  `yaml:"tls_skip_verify,omitempty" toml:"tls_skip_verify"`
}

// FileServerConfig holds health and metrics server settings.
type FileServerConfig struct {
	HealthPort int `yaml:"health_port,omitempty" toml:"health_port"`
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} and ${VAR:-default} with environment
// values. Unset or empty variables use the default, if any.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value := os.Getenv(groups[1]); value != "" {
			return value
		}
		return groups[2]
	})
}

// LoadFile reads a configuration file. The format follows the extension:
// .toml is TOML, .yaml and .yml are YAML.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	content := InterpolateEnvVars(string(data))

	var cfg FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(content, &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader([]byte(content)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing YAML config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .yaml, .yml or .toml)", ext)
	}

	return &cfg, nil
}

// apply copies file values onto cfg. Returned strings are validation errors.
func (f *FileConfig) apply(cfg *Config) []string {
	var errs []string

	if f.Log != nil {
		if f.Log.Level != "" {
			cfg.LogLevel = strings.ToLower(f.Log.Level)
		}
		if f.Log.Format != "" {
			cfg.LogFormat = strings.ToLower(f.Log.Format)
		}
	}

	if p := f.Provider; p != nil {
		if p.Name != "" {
			cfg.Provider = strings.ToLower(p.Name)
		}
		if p.Token != "" {
			cfg.Token = p.Token
		}
		if p.TokenFile != "" {
			token, err := readSecretFile(p.TokenFile)
			if err != nil {
				errs = append(errs, "provider.token_file: "+err.Error())
			} else {
				cfg.Token = token
			}
		}
		for k, v := range p.Settings {
			key := strings.ToUpper(k)
			if key == "TOKEN" {
				cfg.Token = fmt.Sprint(v)
				continue
			}
			cfg.ProviderSettings[key] = fmt.Sprint(v)
		}
	}

	if s := f.Sync; s != nil {
		if s.Domain != "" {
			cfg.Domain = s.Domain
		}
		if s.Host != "" {
			cfg.Host = s.Host
		}
		if s.Interval != "" {
			interval, err := parseInterval(s.Interval)
			if err != nil {
				errs = append(errs, "sync.interval: "+err.Error())
			} else {
				cfg.Interval = interval
			}
		}
		if s.DryRun != nil {
			cfg.DryRun = *s.DryRun
		}
	}

	if d := f.Discovery; d != nil {
		if d.IP != "" {
			cfg.StaticIP = d.IP
		}
		if d.Resolver != "" {
			cfg.ResolverServer = d.Resolver
		}
		if d.EchoName != "" {
			cfg.EchoName = d.EchoName
		}
	}

	if h := f.HTTP; h != nil {
		if h.Timeout != "" {
			timeout, err := parsePositiveDuration(h.Timeout)
			if err != nil {
				errs = append(errs, "http.timeout: "+err.Error())
			} else {
				cfg.HTTPTimeout = timeout
			}
		}
		if h.TLSSkipVerify != nil {
			cfg.TLSSkipVerify = *h.TLSSkipVerify
		}
	}

	if f.Server != nil && f.Server.HealthPort != 0 {
		cfg.HealthPort = f.Server.HealthPort
	}

	return errs
}
