package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// limitedServer routes the report endpoints behind a limiter whose clock the
// test controls.
func limitedServer(cfg RateLimitConfig, now *time.Time) (*echo.Echo, *rateLimiterStore) {
	store := newRateLimiterStore(cfg)
	store.now = func() time.Time { return *now }

	e := echo.New()
	g := e.Group("/api/v1", rateLimit(store))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	g.GET("/patients/:id/discharge-summary", ok)
	g.GET("/tests/:id/report", ok)
	g.POST("/reports/estimate", ok)
	return e, store
}

func hit(e *echo.Echo, method, target, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = ip + ":4000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_RenderBurstThenReject(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	e, _ := limitedServer(RateLimitConfig{RequestsPerSecond: 8, BurstSize: 8}, &now)

	for i := 0; i < 2; i++ {
		rec := hit(e, http.MethodGet, "/api/v1/patients/p-1/discharge-summary", "10.0.0.1")
		if rec.Code != http.StatusOK {
			t.Fatalf("render %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "2" {
			t.Errorf("render %d: expected render limit 2, got %q", i+1, got)
		}
	}

	rec := hit(e, http.MethodGet, "/api/v1/tests/t-1/report", "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the render burst is spent, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestRateLimit_EstimateUnaffectedByRenders(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	e, _ := limitedServer(RateLimitConfig{RequestsPerSecond: 4, BurstSize: 4}, &now)

	if rec := hit(e, http.MethodGet, "/api/v1/patients/p-1/discharge-summary", "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("expected first render allowed, got %d", rec.Code)
	}
	if rec := hit(e, http.MethodGet, "/api/v1/patients/p-1/discharge-summary", "10.0.0.2"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second render rejected, got %d", rec.Code)
	}
	for i := 0; i < 4; i++ {
		rec := hit(e, http.MethodPost, "/api/v1/reports/estimate", "10.0.0.2")
		if rec.Code != http.StatusOK {
			t.Errorf("estimate %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "4" {
			t.Errorf("estimate %d: expected read limit 4, got %q", i+1, got)
		}
	}
}

func TestRateLimit_RefillsOverTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	e, _ := limitedServer(RateLimitConfig{RequestsPerSecond: 4, BurstSize: 4}, &now)

	hit(e, http.MethodGet, "/api/v1/tests/t-1/report", "10.0.0.3")
	if rec := hit(e, http.MethodGet, "/api/v1/tests/t-1/report", "10.0.0.3"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := hit(e, http.MethodGet, "/api/v1/tests/t-1/report", "10.0.0.3"); rec.Code != http.StatusOK {
		t.Errorf("expected a refilled token after one second, got %d", rec.Code)
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	e, _ := limitedServer(RateLimitConfig{RequestsPerSecond: 4, BurstSize: 4}, &now)

	hit(e, http.MethodGet, "/api/v1/tests/t-1/report", "10.0.0.4")
	if rec := hit(e, http.MethodGet, "/api/v1/tests/t-1/report", "10.0.0.4"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected first client limited, got %d", rec.Code)
	}
	if rec := hit(e, http.MethodGet, "/api/v1/tests/t-1/report", "10.0.0.5"); rec.Code != http.StatusOK {
		t.Errorf("expected a different client to be allowed, got %d", rec.Code)
	}
}

func TestRateLimit_IdleBucketsAreDropped(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	e, store := limitedServer(RateLimitConfig{RequestsPerSecond: 4, BurstSize: 4, IdleTTL: time.Minute}, &now)
	store.lastSweep = now

	hit(e, http.MethodGet, "/api/v1/tests/t-1/report", "10.0.0.6")
	hit(e, http.MethodPost, "/api/v1/reports/estimate", "10.0.0.7")
	if n := store.size(); n != 2 {
		t.Fatalf("expected 2 buckets, got %d", n)
	}

	now = now.Add(2 * time.Minute)
	hit(e, http.MethodPost, "/api/v1/reports/estimate", "10.0.0.8")
	if n := store.size(); n != 1 {
		t.Errorf("expected idle buckets swept leaving 1, got %d", n)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want routeClass
	}{
		{"/api/v1/patients/:id/discharge-summary", classRender},
		{"/api/v1/tests/:id/report", classRender},
		{"/api/v1/reports/discharge-summary", classRender},
		{"/api/v1/reports/test-report", classRender},
		{"/api/v1/reports/estimate", classRead},
		{"/health", classRead},
	}
	for _, tt := range tests {
		if got := classify(tt.path); got != tt.want {
			t.Errorf("classify(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 20 || cfg.BurstSize != 40 {
		t.Errorf("unexpected general limits %+v", cfg)
	}
	if cfg.RenderRequestsPerSecond != 5 || cfg.RenderBurstSize != 10 {
		t.Errorf("expected render limits derived as a quarter, got %+v", cfg)
	}
}

func TestTokenBucket_ZeroRateRetriesAfterOneSecond(t *testing.T) {
	now := time.Unix(0, 0)
	b := newTokenBucket(0, 0, now)
	ok, retry := b.take(now)
	if ok || retry != 1 {
		t.Errorf("expected rejection with retry 1, got ok=%t retry=%d", ok, retry)
	}
}
