package cache

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a fixed-window call counter keyed by endpoint. Public REST
// quotas are generous, but one refresh across thousands of symbols can burn
// through them without a brake.
type RateLimiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	limit    int
	window   time.Duration
}

type counter struct {
	count int
	start time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counters: make(map[string]*counter),
		limit:    limit,
		window:   window,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.counters[key]
	if !ok || now.Sub(c.start) > rl.window {
		rl.counters[key] = &counter{count: 1, start: now}
		return true
	}
	if c.count < rl.limit {
		c.count++
		return true
	}
	return false
}

// Wait blocks until a slot is free for key or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	for {
		if rl.Allow(key) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.retryDelay()):
		}
	}
}

func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.counters, key)
}

func (rl *RateLimiter) retryDelay() time.Duration {
	d := rl.window / 10
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}
