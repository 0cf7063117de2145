package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiterBurst(t *testing.T) {
	l := NewIPRateLimiter(0.001, 3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("fourth request should be limited")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("a different IP has its own bucket")
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
}

func TestIPRateLimiterCleanup(t *testing.T) {
	l := NewIPRateLimiter(10, 10, time.Millisecond)
	l.Allow("1.2.3.4")
	time.Sleep(5 * time.Millisecond)
	l.Allow("5.6.7.8")

	if removed := l.Cleanup(); removed != 1 {
		t.Errorf("Cleanup removed %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len after cleanup = %d, want 1", l.Len())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewIPRateLimiter(0.5, 1, time.Minute)
	var rejected int
	h := l.Middleware(false, map[string]bool{"/healthz": true}, func() { rejected++ })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "9.9.9.9:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("/api/v1/sky"); rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := do("/api/v1/sky")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Errorf("Retry-After = %q, want 2", rec.Header().Get("Retry-After"))
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
		t.Errorf("body = %v, %v", body, err)
	}
	if rejected != 1 {
		t.Errorf("onReject called %d times, want 1", rejected)
	}

	for i := 0; i < 5; i++ {
		if rec := do("/healthz"); rec.Code != http.StatusNoContent {
			t.Errorf("exempt path limited: %d", rec.Code)
		}
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad lat")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rec.Body.String(); got != "{\"error\":\"bad lat\"}\n" {
		t.Errorf("body = %q", got)
	}
}
