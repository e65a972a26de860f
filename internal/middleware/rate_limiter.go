package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/compintel/discovery/internal/config"
)

// RateLimiter is an in-memory, fixed-window limiter keyed by client IP. It
// protects the discovery API from being hammered by a single tenant; it is
// not a substitute for per-organization quota enforcement, which lives in
// the orchestrator.
type RateLimiter struct {
	cfg      config.RateLimiterConfig
	mu       sync.Mutex
	attempts map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter from the loaded RateLimiterConfig.
func NewRateLimiter(cfg config.RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		cfg:      cfg,
		attempts: make(map[string]*rateLimitEntry),
	}
}

// Middleware returns a gin.HandlerFunc enforcing the configured
// requests-per-window limit per client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	window := time.Duration(rl.cfg.WindowSeconds) * time.Second
	return func(c *gin.Context) {
		key := clientIP(c.Request)
		now := time.Now()

		rl.mu.Lock()
		entry, ok := rl.attempts[key]
		if !ok || now.Sub(entry.windowStart) > window {
			entry = &rateLimitEntry{count: 1, windowStart: now}
			rl.attempts[key] = entry
			rl.mu.Unlock()
			c.Next()
			return
		}
		entry.count++
		exceeded := entry.count > rl.cfg.MaxRequests
		remaining := rl.cfg.MaxRequests - entry.count
		resetAt := entry.windowStart.Add(window)
		rl.mu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.MaxRequests))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if exceeded {
			c.Header("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())))
			respondWithRateLimitError(c, int(time.Until(resetAt).Seconds()), rl.cfg.MaxRequests, 0, resetAt)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}

// Cleanup removes stale entries; intended to be called periodically so the
// map doesn't grow unbounded under many distinct client IPs.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-time.Hour)
	for key, entry := range rl.attempts {
		if entry.windowStart.Before(cutoff) {
			delete(rl.attempts, key)
		}
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
