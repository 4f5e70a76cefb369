package command

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-session command limits.
type RateLimitConfig struct {
	PerSecond       float64
	Burst           int
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig allows two inputs per tick at 60 Hz with a short burst.
var DefaultRateLimitConfig = RateLimitConfig{
	PerSecond:       120,
	Burst:           60,
	CleanupInterval: time.Minute,
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

// RateLimiter is a token bucket per session key.
type RateLimiter struct {
	limiters sync.Map // map[string]*limiterEntry
	config   RateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	rl := &RateLimiter{config: cfg, stopChan: make(chan struct{})}
	go rl.cleanupLoop()
	return rl
}

// Allow consumes one token for key.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now().UnixNano()
	if v, ok := rl.limiters.Load(key); ok {
		e := v.(*limiterEntry)
		e.lastSeen.Store(now)
		return e.limiter.Allow()
	}

	entry := &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.config.PerSecond), rl.config.Burst)}
	entry.lastSeen.Store(now)
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter.Allow()
}

// Forget drops the bucket for key.
func (rl *RateLimiter) Forget(key string) {
	rl.limiters.Delete(key)
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * rl.config.CleanupInterval).UnixNano()
			rl.limiters.Range(func(key, value any) bool {
				if value.(*limiterEntry).lastSeen.Load() < cutoff {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}
