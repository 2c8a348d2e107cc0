package ws

import (
	"sync"
	"time"
)

// RateLimiter bounds the command rate per client identity. Each identity gets
// a fixed window of at most `limit` commands; a window restarts lazily once
// it has aged out, so an idle identity costs one small struct at most.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    int
	interval time.Duration
}

type bucket struct {
	opened time.Time
	used   int
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		limit:    limit,
		interval: interval,
	}
}

func (rl *RateLimiter) Allow(token string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[token]
	if !ok || now.Sub(b.opened) >= rl.interval {
		rl.buckets[token] = &bucket{opened: now, used: 1}
		return true
	}
	if b.used >= rl.limit {
		return false
	}
	b.used++
	return true
}
