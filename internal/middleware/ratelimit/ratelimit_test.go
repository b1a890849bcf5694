package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinBudget(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("u1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("u1") {
		t.Fatal("fourth request should be rejected")
	}
	// other callers have their own budget
	if !l.Allow("u2") {
		t.Fatal("other caller should be allowed")
	}
}

func TestWrapReturns429(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer l.Stop()

	h := l.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.Header.Set("X-Owner-ID", "u1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestActiveCallers(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 10, CleanupInterval: time.Minute})
	defer l.Stop()

	l.Allow("a")
	l.Allow("b")
	l.Allow("a")
	if n := l.ActiveCallers(); n != 2 {
		t.Fatalf("active callers = %d", n)
	}
}
