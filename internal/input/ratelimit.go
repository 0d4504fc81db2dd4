package input

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client input budgets
type RateLimitConfig struct {
	PerSecond  float64       // Sustained inputs per second
	Burst      int           // Inputs allowed back to back
	IdleExpiry time.Duration // Clients silent this long are forgotten
}

// DefaultRateLimitConfig covers pointer-rate target updates plus key presses
var DefaultRateLimitConfig = RateLimitConfig{
	PerSecond:  120,
	Burst:      30,
	IdleExpiry: 5 * time.Minute,
}

// RateLimiter hands each client its own token bucket
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	config   RateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter and starts its idle sweeper
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.IdleExpiry <= 0 {
		cfg.IdleExpiry = DefaultRateLimitConfig.IdleExpiry
	}
	rl := &RateLimiter{
		clients:  make(map[string]*clientBucket),
		config:   cfg,
		stopChan: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Allow spends one token from clientID's bucket
func (rl *RateLimiter) Allow(clientID string) bool {
	now := time.Now()

	rl.mu.Lock()
	b, ok := rl.clients[clientID]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(rl.config.PerSecond), rl.config.Burst)}
		rl.clients[clientID] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Forget drops a client's bucket, e.g. when its connection closes
func (rl *RateLimiter) Forget(clientID string) {
	rl.mu.Lock()
	delete(rl.clients, clientID)
	rl.mu.Unlock()
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop ends the sweeper
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case now := <-ticker.C:
			rl.sweep(now.Add(-rl.config.IdleExpiry))
		}
	}
}

func (rl *RateLimiter) sweep(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, id)
		}
	}
}
