package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestRateLimiter(burst int) *RateLimiter {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            rate.Limit(0.001), // ほぼ補充されない
		Burst:           burst,
		CleanupInterval: time.Hour,
	})
	return rl
}

func doRequest(t *testing.T, handler http.Handler, userID string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/recipe?id=eggs", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), userID))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Result().StatusCode
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := newTestRateLimiter(3)
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		if got := doRequest(t, handler, "user-1"); got != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, got, http.StatusOK)
		}
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rl := newTestRateLimiter(1)
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if got := doRequest(t, handler, "user-1"); got != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", got, http.StatusOK)
	}
	if got := doRequest(t, handler, "user-1"); got != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want %d", got, http.StatusTooManyRequests)
	}
}

func TestRateLimiter_IsolatesUsers(t *testing.T) {
	rl := newTestRateLimiter(1)
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if got := doRequest(t, handler, "user-1"); got != http.StatusOK {
		t.Fatalf("user-1: status = %d, want %d", got, http.StatusOK)
	}
	// 別ユーザーはuser-1の消費に影響されないこと
	if got := doRequest(t, handler, "user-2"); got != http.StatusOK {
		t.Errorf("user-2: status = %d, want %d", got, http.StatusOK)
	}

	if rl.LimiterCount() != 2 {
		t.Errorf("LimiterCount = %d, want 2", rl.LimiterCount())
	}
}

func TestRateLimiter_NoUserID_Returns401(t *testing.T) {
	rl := newTestRateLimiter(1)
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/recipe", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestNewRateLimiterConfig_ConvertsPerMinute(t *testing.T) {
	cfg := NewRateLimiterConfig(30)

	if cfg.Rate != rate.Limit(0.5) {
		t.Errorf("Rate = %v, want %v", cfg.Rate, rate.Limit(0.5))
	}
	if cfg.Burst != 30 {
		t.Errorf("Burst = %d, want %d", cfg.Burst, 30)
	}
}
