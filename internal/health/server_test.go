package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func getJSON(t *testing.T, s *Server, path string) (int, Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return w.Code, resp
}

func TestServer_Health(t *testing.T) {
	code, resp := getJSON(t, New(0), "/health")

	if code != http.StatusOK {
		t.Errorf("expected status 200, got %d", code)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", resp.Status)
	}
}

func TestServer_Ready_NoCheckers(t *testing.T) {
	code, resp := getJSON(t, New(0), "/ready")

	if code != http.StatusOK || resp.Status != StatusReady {
		t.Errorf("expected 200/ready, got %d/%s", code, resp.Status)
	}
}

func TestServer_Ready_FailingChecker(t *testing.T) {
	s := New(0)
	s.RegisterChecker("provider", func(ctx context.Context) error { return nil })
	s.RegisterChecker("sync", func(ctx context.Context) error { return errors.New("boom") })

	code, resp := getJSON(t, s, "/ready")

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	if resp.Status != StatusNotReady {
		t.Errorf("expected not_ready, got %s", resp.Status)
	}
	if len(resp.Components) != 2 || resp.Components[0].Name != "provider" || resp.Components[1].Error != "boom" {
		t.Errorf("unexpected components: %+v", resp.Components)
	}
}

func TestServer_Ready_Degraded(t *testing.T) {
	s := New(0)
	s.RegisterChecker("sync", func(ctx context.Context) error { return nil })
	s.RegisterDegradedChecker("freshness", func(ctx context.Context) (bool, string) {
		return true, "stale"
	})

	code, resp := getJSON(t, s, "/ready")

	if code != http.StatusOK || resp.Status != StatusDegraded {
		t.Errorf("expected 200/degraded, got %d/%s", code, resp.Status)
	}
	if len(resp.Degraded) != 1 || resp.Degraded[0].Message != "stale" {
		t.Errorf("unexpected degraded list: %+v", resp.Degraded)
	}
}

func TestServer_Metrics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	New(0).Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected default Go collector output")
	}
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	if err := New(0).Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSyncTracker(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewSyncTracker()
	tracker.now = func() time.Time { return now }
	stale := tracker.Stale(10 * time.Minute)

	if err := tracker.Ready(context.Background()); !errors.Is(err, ErrNoSync) {
		t.Errorf("expected ErrNoSync before first sync, got %v", err)
	}

	tracker.Record(nil)
	if err := tracker.Ready(context.Background()); err != nil {
		t.Errorf("expected ready after success, got %v", err)
	}
	if degraded, _ := stale(context.Background()); degraded {
		t.Error("fresh sync should not be degraded")
	}

	now = now.Add(5 * time.Minute)
	syncErr := errors.New("provider down")
	tracker.Record(syncErr)
	if err := tracker.Ready(context.Background()); !errors.Is(err, syncErr) {
		t.Errorf("expected last error, got %v", err)
	}

	now = now.Add(10 * time.Minute)
	degraded, message := stale(context.Background())
	if !degraded {
		t.Error("expected degraded after 15 minutes without success")
	}
	if !strings.Contains(message, "15m0s") {
		t.Errorf("unexpected message: %s", message)
	}
}
