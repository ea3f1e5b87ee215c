package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig sizes the per-client token buckets. Routes that render a
// PDF draw from their own, smaller bucket so a burst of renders cannot starve
// cheap calls such as the page estimate.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// Render limits apply to PDF-producing routes. Zero derives them as a
	// quarter of the general limits.
	RenderRequestsPerSecond float64
	RenderBurstSize         int
	// IdleTTL drops buckets of clients not seen for this long.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
	}.withDefaults()
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.RenderRequestsPerSecond <= 0 {
		c.RenderRequestsPerSecond = c.RequestsPerSecond / 4
	}
	if c.RenderBurstSize <= 0 {
		c.RenderBurstSize = max(1, c.BurstSize/4)
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 10 * time.Minute
	}
	return c
}

type routeClass string

const (
	classRender routeClass = "render"
	classRead   routeClass = "read"
)

// classify maps a matched route pattern to its bucket class.
func classify(path string) routeClass {
	switch {
	case strings.HasSuffix(path, "/discharge-summary"),
		strings.HasSuffix(path, "/report"),
		strings.HasSuffix(path, "/test-report"):
		return classRender
	default:
		return classRead
	}
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: now,
	}
}

// take refills the bucket up to now and spends one token. When empty it
// returns the whole seconds until the next token.
func (b *tokenBucket) take(now time.Time) (ok bool, retryAfter int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = math.Min(b.maxTokens, b.tokens+now.Sub(b.lastRefill).Seconds()*b.refillRate)
	b.lastRefill = now
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.refillRate <= 0 {
		return false, 1
	}
	return false, int((1-b.tokens)/b.refillRate) + 1
}

func (b *tokenBucket) idleSince(now time.Time, ttl time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastRefill) > ttl
}

// rateLimiterStore holds one bucket per client and route class.
type rateLimiterStore struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	config    RateLimitConfig
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{
		buckets:   make(map[string]*tokenBucket),
		config:    cfg.withDefaults(),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (s *rateLimiterStore) limit(class routeClass) float64 {
	if class == classRender {
		return s.config.RenderRequestsPerSecond
	}
	return s.config.RequestsPerSecond
}

func (s *rateLimiterStore) bucket(ip string, class routeClass, now time.Time) *tokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.config.IdleTTL {
		for k, b := range s.buckets {
			if b.idleSince(now, s.config.IdleTTL) {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	key := string(class) + "|" + ip
	b, ok := s.buckets[key]
	if !ok {
		if class == classRender {
			b = newTokenBucket(s.config.RenderRequestsPerSecond, s.config.RenderBurstSize, now)
		} else {
			b = newTokenBucket(s.config.RequestsPerSecond, s.config.BurstSize, now)
		}
		s.buckets[key] = b
	}
	return b
}

func (s *rateLimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit limits each client IP per route class. Rejections carry
// Retry-After and the same {"error"} body as the report handlers.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(newRateLimiterStore(cfg))
}

func rateLimit(store *rateLimiterStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			class := classify(c.Path())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatFloat(store.limit(class), 'f', -1, 64))

			ok, retryAfter := store.bucket(c.RealIP(), class, store.now()).take(store.now())
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("X-RateLimit-Remaining", "0")
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded for " + string(class) + " requests",
				})
			}
			return next(c)
		}
	}
}
