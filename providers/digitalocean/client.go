// Package digitalocean implements the dnsyncmyip record provider for DigitalOcean DNS.
package digitalocean

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/httputil"
)

// domainRecord is a DNS record as returned by the DigitalOcean API.
type domainRecord struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
	TTL  int    `json:"ttl"`
}

// pageLinks holds pagination links of a listing response.
type pageLinks struct {
	First string `json:"first,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last,omitempty"`
}

// links is the "links" object of a listing response. DigitalOcean nests
// page links under "pages"; a flat "next" is accepted as well.
type links struct {
	Pages *pageLinks `json:"pages,omitempty"`
	Next  string     `json:"next,omitempty"`
}

// next returns the link to the following page, or "" on the last page.
func (l links) next() string {
	if l.Pages != nil && l.Pages.Next != "" {
		return l.Pages.Next
	}
	return l.Next
}

// recordsResponse is one page of GET domains/{domain}/records.
type recordsResponse struct {
	DomainRecords []domainRecord `json:"domain_records"`
	Links         links          `json:"links"`
}

// createRecordRequest is the request body for creating a record.
type createRecordRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
	TTL  int    `json:"ttl,omitempty"`
}

// updateRecordRequest is the request body for updating a record's data.
type updateRecordRequest struct {
	Data string `json:"data"`
}

// apiError is the error body returned by the DigitalOcean API.
type apiError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Client is a thin DigitalOcean API client. Every request carries the
// bearer token; responses are returned unjudged so callers decide what
// counts as failure.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new DigitalOcean API client rooted at apiURL.
func NewClient(apiURL, token string, opts ...ClientOption) (*Client, error) {
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parsing API URL %q: %w", apiURL, err)
	}

	c := &Client{
		baseURL:    base,
		token:      token,
		httpClient: httputil.DefaultClient(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// resolve turns a path relative to the API root, or an absolute link
// taken from a response, into a request URI.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing URI %q: %w", ref, err)
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.token)
	return h
}

func (c *Client) do(ctx context.Context, method, ref string, body any) (*httputil.Response, error) {
	uri, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", ref),
	)

	return httputil.DoJSON(ctx, c.httpClient, method, uri, c.headers(), body)
}

// Get issues a GET for a path relative to the API root.
func (c *Client) Get(ctx context.Context, path string) (*httputil.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// FollowLink issues a GET for a pagination link returned by the API.
func (c *Client) FollowLink(ctx context.Context, link string) (*httputil.Response, error) {
	return c.do(ctx, http.MethodGet, link, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*httputil.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*httputil.Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// describeError extracts the API error message from a failed response.
func describeError(resp *httputil.Response) string {
	var e apiError
	if err := resp.Decode(&e); err == nil && e.Message != "" {
		if e.ID != "" {
			return fmt.Sprintf("%s (%s)", e.Message, e.ID)
		}
		return e.Message
	}
	body := strings.TrimSpace(string(resp.Body))
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		return http.StatusText(resp.StatusCode)
	}
	return body
}
