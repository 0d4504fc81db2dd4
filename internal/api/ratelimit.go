package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the IP-based rate limiter
type RateLimitConfig struct {
	RequestsPerSecond float64       // Requests allowed per second per IP
	Burst             int           // Maximum burst size
	CleanupInterval   time.Duration // How often to drop idle limiters
}

// DefaultRateLimitConfig leaves room for a client polling state at 30 Hz
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 40,
	Burst:             80,
	CleanupInterval:   5 * time.Minute,
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter provides IP-based rate limiting for HTTP requests
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	config   RateLimitConfig

	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool

	rejected atomic.Uint64
	allowed  atomic.Uint64
}

// NewIPRateLimiter creates a limiter. Idle entries are only swept once
// StartCleanup is called.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	return &IPRateLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		config:   cfg,
		stopChan: make(chan struct{}),
	}
}

// StartCleanup launches the sweeper goroutine (idempotent)
func (rl *IPRateLimiter) StartCleanup() {
	if rl.started.CompareAndSwap(false, true) {
		go rl.cleanupLoop()
	}
}

// Stop ends the sweeper
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

// Allow checks if a request from the given IP should be allowed
func (rl *IPRateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	rl.mu.Unlock()

	if entry.limiter.AllowN(now, 1) {
		rl.allowed.Add(1)
		return true
	}
	rl.rejected.Add(1)
	return false
}

// Middleware rejects requests over the per-IP budget with 429
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeError(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case now := <-ticker.C:
			rl.sweep(now.Add(-2 * rl.config.CleanupInterval))
		}
	}
}

func (rl *IPRateLimiter) sweep(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
			removed++
		}
	}
	return removed
}

// GetStats returns rate limiter statistics
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	rl.mu.Lock()
	tracked := len(rl.limiters)
	rl.mu.Unlock()

	return map[string]uint64{
		"allowed":  rl.allowed.Load(),
		"rejected": rl.rejected.Load(),
		"tracked":  uint64(tracked),
	}
}

// GetClientIP extracts the client IP from an HTTP request.
// X-Forwarded-For is trusted, so run behind a proxy that sets it.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ConnLimiter caps concurrent WebSocket connections, per IP and in total
type ConnLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewConnLimiter creates a limiter; non-positive limits disable that check
func NewConnLimiter(maxPerIP, maxTotal int) *ConnLimiter {
	return &ConnLimiter{
		perIP:    make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// Acquire reserves a slot for ip. reason names the exceeded limit when ok is false.
func (c *ConnLimiter) Acquire(ip string) (ok bool, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.total >= c.maxTotal {
		return false, "ws_total_limit"
	}
	if c.maxPerIP > 0 && c.perIP[ip] >= c.maxPerIP {
		return false, "ws_ip_limit"
	}
	c.perIP[ip]++
	c.total++
	return true, ""
}

// Release frees a slot reserved by Acquire
func (c *ConnLimiter) Release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.perIP[ip]
	if !ok {
		return
	}
	if n <= 1 {
		delete(c.perIP, ip)
	} else {
		c.perIP[ip] = n - 1
	}
	c.total--
}

// Count returns connections held by ip
func (c *ConnLimiter) Count(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perIP[ip]
}

// Total returns all held connections
func (c *ConnLimiter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// DefaultCORSOrigins are used when no origins are configured
var DefaultCORSOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// OriginChecker matches Origin headers against CORS-style patterns,
// where a single "*" matches any run of characters.
type OriginChecker struct {
	patterns []string
}

// NewOriginChecker builds a checker; nil patterns fall back to DefaultCORSOrigins
func NewOriginChecker(patterns []string) *OriginChecker {
	if patterns == nil {
		patterns = DefaultCORSOrigins
	}
	return &OriginChecker{patterns: patterns}
}

// Allowed reports whether origin may open a WebSocket.
// Requests without an Origin header come from non-browser clients and pass.
func (oc *OriginChecker) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, p := range oc.patterns {
		if matchOrigin(p, origin) {
			return true
		}
	}
	return false
}

func matchOrigin(pattern, origin string) bool {
	if pattern == "*" {
		return true
	}
	prefix, suffix, wild := strings.Cut(pattern, "*")
	if !wild {
		return strings.EqualFold(pattern, origin)
	}
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) &&
		strings.HasSuffix(origin, suffix)
}
