package httputil

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(nil)

	if client.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, client.Timeout)
	}

	lt, ok := client.Transport.(*loggingTransport)
	if !ok {
		t.Fatal("expected transport to be *loggingTransport")
	}
	if lt.userAgent != DefaultUserAgent {
		t.Errorf("expected userAgent %q, got %q", DefaultUserAgent, lt.userAgent)
	}
	if lt.base != http.DefaultTransport {
		t.Error("expected base transport to be http.DefaultTransport")
	}
}

func TestNewClient_Timeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"custom", 60 * time.Second, 60 * time.Second},
		{"zero uses default", 0, DefaultTimeout},
		{"negative uses default", -time.Second, DefaultTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(&ClientConfig{Timeout: tt.timeout})
			if client.Timeout != tt.want {
				t.Errorf("expected timeout %v, got %v", tt.want, client.Timeout)
			}
		})
	}
}

func TestNewClient_TLSSkipVerify(t *testing.T) {
	client := NewClient(&ClientConfig{TLSSkipVerify: true})

	lt := client.Transport.(*loggingTransport)
	transport, ok := lt.base.(*http.Transport)
	if !ok {
		t.Fatal("expected base transport to be *http.Transport")
	}
	if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify to be true")
	}
}

func TestNewClient_UserAgentAppliedToRequests(t *testing.T) {
	var receivedUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := NewClient(&ClientConfig{UserAgent: "test-dnsyncmyip/1.2.3", Logger: logger})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if receivedUserAgent != "test-dnsyncmyip/1.2.3" {
		t.Errorf("expected User-Agent %q, got %q", "test-dnsyncmyip/1.2.3", receivedUserAgent)
	}
	if req.Header.Get("User-Agent") != "" {
		t.Error("caller's request must not be mutated")
	}
}
