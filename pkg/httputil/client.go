// Package httputil provides the HTTP client plumbing shared by REST providers.
package httputil

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"
)

// Default HTTP client configuration values.
const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is used when no custom user agent is specified.
	DefaultUserAgent = "dnsyncmyip/1.0"
)

// ClientConfig contains configuration for creating an HTTP client.
type ClientConfig struct {
	// Timeout is the HTTP client timeout. Defaults to 30 seconds.
	Timeout time.Duration

	// TLSSkipVerify controls whether to skip TLS certificate verification.
	// Only meant for testing against servers with self-signed certificates.
	TLSSkipVerify bool

	// UserAgent is the User-Agent header to set on requests.
	UserAgent string

	// Logger enables debug logging of requests. Nil disables it.
	Logger *slog.Logger
}

// loggingTransport sets the User-Agent header and logs each exchange at debug level.
type loggingTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	if t.logger != nil {
		attrs := []any{
			slog.String("method", req.Method),
			slog.String("url", redactQuery(req)),
			slog.Duration("elapsed", time.Since(start)),
		}
		if resp != nil {
			attrs = append(attrs, slog.Int("status", resp.StatusCode))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		t.logger.Debug("HTTP request", attrs...)
	}

	return resp, err
}

// redactQuery drops the query string, which may carry credentials for some APIs.
func redactQuery(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}

// NewClient creates an HTTP client with the specified configuration.
// If cfg is nil, defaults are used (30s timeout, TLS verification enabled).
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	baseTransport := http.DefaultTransport
	if cfg.TLSSkipVerify {
		baseTransport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // Intentional: user explicitly requested skip
			},
		}
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			base:      baseTransport,
			userAgent: userAgent,
			logger:    cfg.Logger,
		},
	}
}

// DefaultClient returns a new HTTP client with default settings.
func DefaultClient() *http.Client {
	return NewClient(nil)
}
