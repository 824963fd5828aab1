package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitBurstThenReject(t *testing.T) {
	h := RateLimit(0.0001, 3)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/articles", nil)
		req.Header.Set("X-Real-Ip", "203.0.113.9")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d within burst should pass, got %d", i+1, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/articles", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.9")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("request beyond burst should be rejected, got %d", w.Code)
	}
}

func TestRateLimitPerIP(t *testing.T) {
	h := RateLimit(0.0001, 1)(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/api/articles", nil)
	first.Header.Set("X-Real-Ip", "203.0.113.1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/api/articles", nil)
	other.Header.Set("X-Real-Ip", "203.0.113.2")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Errorf("different IP must have its own bucket, got %d", w.Code)
	}
}
