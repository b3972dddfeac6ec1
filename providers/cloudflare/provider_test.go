package cloudflare

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
)

func successResponse(result any) map[string]any {
	return map[string]any{
		"success":  true,
		"errors":   []any{},
		"messages": []any{},
		"result":   result,
	}
}

func listResponse(result any, count int) map[string]any {
	resp := successResponse(result)
	resp["result_info"] = map[string]any{
		"page":        1,
		"per_page":    100,
		"total_pages": 1,
		"count":       count,
		"total_count": count,
	}
	return resp
}

func errorResponse(code int, message string) map[string]any {
	return map[string]any{
		"success":  false,
		"errors":   []any{map[string]any{"code": code, "message": message}},
		"messages": []any{},
		"result":   nil,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProvider(t *testing.T, serverURL, zoneID string) *Provider {
	t.Helper()
	p, err := New(&Config{
		Domain: "example.com",
		Token:  "test-token",
		ZoneID: zoneID,
		APIURL: serverURL + "/client/v4",
		TTL:    DefaultTTL,
	}, WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestNew_FailFast(t *testing.T) {
	for _, cfg := range []*Config{nil, {Domain: "example.com"}, {Token: "t"}} {
		if _, err := New(cfg); !provider.IsConfigError(err) {
			t.Errorf("expected config error for %+v, got %v", cfg, err)
		}
	}
}

func TestProvider_Find(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/client/v4/zones/zone123/dns_records" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("type") != "A" || r.URL.Query().Get("name") != "home.example.com" {
			t.Errorf("unexpected filter: %s", r.URL.RawQuery)
		}

		writeJSON(w, http.StatusOK, listResponse([]map[string]any{
			{"id": "rec1", "type": "A", "name": "home.example.com", "content": "1.2.3.4", "ttl": 1},
		}, 1))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "zone123")

	record, found, err := p.Find(context.Background(), "home")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if !found {
		t.Fatal("expected record")
	}
	if record.ID != "rec1" || record.IP != "1.2.3.4" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestProvider_Find_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, listResponse([]any{}, 0))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "zone123")

	_, found, err := p.Find(context.Background(), "home")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found {
		t.Error("expected no record")
	}
}

func TestProvider_ZoneLookupOnce(t *testing.T) {
	var zoneLookups int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/client/v4/zones" {
			atomic.AddInt32(&zoneLookups, 1)
			if r.URL.Query().Get("name") != "example.com" {
				t.Errorf("unexpected zone filter: %s", r.URL.RawQuery)
			}
			writeJSON(w, http.StatusOK, listResponse([]map[string]any{
				{"id": "zone-abc", "name": "example.com"},
			}, 1))
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/client/v4/zones/zone-abc/") {
			t.Errorf("expected looked up zone id in path, got %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, listResponse([]any{}, 0))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "")

	for i := 0; i < 2; i++ {
		if _, _, err := p.Find(context.Background(), "home"); err != nil {
			t.Fatalf("Find failed: %v", err)
		}
	}
	if got := atomic.LoadInt32(&zoneLookups); got != 1 {
		t.Errorf("expected one zone lookup, got %d", got)
	}
}

func TestProvider_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/client/v4/zones/zone123/dns_records" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["type"] != "A" || body["name"] != "home.example.com" || body["content"] != "5.6.7.8" {
			t.Errorf("unexpected body: %v", body)
		}
		if body["proxied"] != false {
			t.Errorf("expected proxied=false, got %v", body["proxied"])
		}

		writeJSON(w, http.StatusOK, successResponse(map[string]any{
			"id": "new1", "type": "A", "name": "home.example.com", "content": "5.6.7.8",
		}))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "zone123")

	if err := p.Create(context.Background(), "home", "5.6.7.8"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
}

func TestProvider_Update(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.URL.Path != "/client/v4/zones/zone123/dns_records/rec1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		if body["content"] != "5.6.7.8" {
			t.Errorf("unexpected body: %v", body)
		}

		writeJSON(w, http.StatusOK, successResponse(map[string]any{
			"id": "rec1", "type": "A", "name": "home.example.com", "content": "5.6.7.8",
		}))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "zone123")

	err := p.Update(context.Background(), provider.DomainRecord{ID: "rec1", IP: "1.2.3.4"}, "5.6.7.8")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !called {
		t.Error("expected update request")
	}
}

func TestProvider_Create_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, errorResponse(81057, "Record already exists."))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "zone123")

	err := p.Create(context.Background(), "home", "5.6.7.8")
	var re *provider.RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected *provider.RequestError, got %v", err)
	}
	if re.Operation != "create" || re.Provider != Label {
		t.Errorf("unexpected error details: %+v", re)
	}
}

func TestProvider_Find_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, errorResponse(10000, "Authentication error"))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "zone123")

	_, _, err := p.Find(context.Background(), "home")
	if !provider.IsUnauthorized(err) {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(provider.Config{
		Domain: "example.com.",
		Token:  "t",
		Settings: map[string]string{
			"ZONE_ID": "zone123",
			"TTL":     "120",
			"PROXIED": "true",
		},
	})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Domain != "example.com" || cfg.ZoneID != "zone123" || cfg.TTL != 120 || !cfg.Proxied {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  provider.Config
	}{
		{"missing token", provider.Config{Domain: "example.com"}},
		{"missing domain", provider.Config{Token: "t"}},
		{"ttl below minimum", provider.Config{Domain: "example.com", Token: "t", Settings: map[string]string{"TTL": "30"}}},
		{"bad proxied", provider.Config{Domain: "example.com", Token: "t", Settings: map[string]string{"PROXIED": "perhaps"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(tt.cfg); !provider.IsConfigError(err) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	p, err := Factory()(provider.Config{Domain: "example.com", Token: "t", Logger: testLogger()})
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	if p.Name() != Label || p.Domain() != "example.com" {
		t.Errorf("unexpected provider %s/%s", p.Name(), p.Domain())
	}
}
