package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"golang.org/x/time/rate"
)

func TestIsValidBearerToken(t *testing.T) {
	log := logger_i.NewLogger("test")
	tests := []struct {
		name   string
		cfg    config.ServerConfig
		header string
		want   bool
	}{
		{"valid token", config.ServerConfig{AuthToken: "secret"}, "Bearer secret", true},
		{"wrong token", config.ServerConfig{AuthToken: "secret"}, "Bearer nope", false},
		{"missing header", config.ServerConfig{AuthToken: "secret"}, "", false},
		{"not bearer", config.ServerConfig{AuthToken: "secret"}, "Basic secret", false},
		{"no token configured", config.ServerConfig{}, "Bearer ", false},
		{"bypass", config.ServerConfig{NoAuthBypass: true}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(tt.cfg)
			if got := IsValidBearerToken(tt.header, log); got != tt.want {
				t.Errorf("IsValidBearerToken(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	Init(config.ServerConfig{AuthToken: "secret"})
	defer Init(config.ServerConfig{})

	var seenTrace string
	handler := Wrap(func(w http.ResponseWriter, r *http.Request) {
		seenTrace, _ = r.Context().Value(config.TRACE_ID_KEY).(string)
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/models", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if rec.Header().Get("X-Trace-Id") == "" {
			t.Error("trace id header missing on rejected request")
		}
	})

	t.Run("authorized keeps the caller's trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/models", nil)
		req.Header.Set("Authorization", "Bearer secret")
		req.Header.Set("X-Trace-Id", "trace-123")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusTeapot {
			t.Errorf("expected handler status, got %d", rec.Code)
		}
		if seenTrace != "trace-123" || rec.Header().Get("X-Trace-Id") != "trace-123" {
			t.Errorf("trace got %q / %q", seenTrace, rec.Header().Get("X-Trace-Id"))
		}
	})
}

func TestWrap_RateLimit(t *testing.T) {
	Init(config.ServerConfig{NoAuthBypass: true, RateLimit: true})
	defer Init(config.ServerConfig{})

	handler := Wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	limited := 0
	for i := 0; i < config.BURST_RATE_LIMIT_PER_SECOND+3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Error("expected some requests over the burst to be rejected")
	}
}

func TestIPRateLimiter_Evict(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(rate.Limit(1), 1)
	limiter.now = func() time.Time { return now }

	first := limiter.GetLimiter("10.0.0.1")
	if limiter.GetLimiter("10.0.0.1") != first {
		t.Error("same ip should reuse its bucket")
	}

	now = now.Add(5 * time.Minute)
	limiter.GetLimiter("10.0.0.2")

	now = now.Add(6 * time.Minute)
	if removed := limiter.Evict(10 * time.Minute); removed != 1 {
		t.Errorf("expected 1 eviction, got %d", removed)
	}
	if limiter.Len() != 1 {
		t.Errorf("expected 1 bucket left, got %d", limiter.Len())
	}
}
