package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// HTTPConfig holds shared HTTP client settings handed to every factory.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout. Zero uses the httputil default.
	Timeout time.Duration

	// TLSSkipVerify disables TLS certificate verification.
	TLSSkipVerify bool

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// Config holds the parameters needed to construct a RecordProvider.
// It is treated as immutable once passed to a factory.
type Config struct {
	// Domain is the DNS domain the provider manages records under.
	Domain string

	// Token is the API credential (bearer token, TSIG secret, ...).
	Token string

	// Settings holds provider-specific values keyed by upper-case name
	// (e.g., "API_URL", "ZONE_ID", "SERVER").
	Settings map[string]string

	// HTTP configures the HTTP client for REST backends.
	HTTP HTTPConfig

	// Logger is passed down to the provider. Nil means slog.Default().
	Logger *slog.Logger
}

// Setting returns a provider-specific setting, or "" if unset.
func (c Config) Setting(key string) string {
	if c.Settings == nil {
		return ""
	}
	return c.Settings[strings.ToUpper(key)]
}

// Factory is a function that creates a new provider from configuration.
type Factory func(cfg Config) (RecordProvider, error)

// Registry maps provider labels to factories.
// It is built once at process start and then only read.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
}

// Register associates a label with a factory. Registering the same label
// again replaces the previous factory.
func (r *Registry) Register(label string, factory Factory) {
	label = normalizeLabel(label)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[label]; exists {
		r.logger.Debug("replacing provider factory", slog.String("provider", label))
	}
	r.factories[label] = factory
}

// New constructs a provider for label using cfg.
// Returns *UnknownProviderError if the label is not registered.
func (r *Registry) New(label string, cfg Config) (RecordProvider, error) {
	label = normalizeLabel(label)

	r.mu.RLock()
	factory, ok := r.factories[label]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownProviderError{Label: label, Known: r.Labels()}
	}

	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}

	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating provider %s: %w", label, err)
	}

	r.logger.Debug("provider created",
		slog.String("provider", label),
		slog.String("domain", cfg.Domain),
	)

	return p, nil
}

// Has reports whether a factory is registered for label.
func (r *Registry) Has(label string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalizeLabel(label)]
	return ok
}

// Labels returns all registered labels in sorted order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make([]string, 0, len(r.factories))
	for label := range r.factories {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Count returns the number of registered factories.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
