package ratelimiter

import (
	"sync"
	"time"
)

type Limiter interface {
	Allow(ip string) (bool, time.Duration)
}

// FixedWindowRateLimiter counts requests per client IP and resets every
// window. Cheap and good enough for a public storefront edge.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients     map[string]int
	limit       int
	window      time.Duration
	windowStart time.Time
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients:     make(map[string]int),
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
	}
}

// Allow reports whether the request may proceed. When denied it also
// returns how long the client should wait before retrying.
func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := time.Now()
	if elapsed := now.Sub(rl.windowStart); elapsed >= rl.window {
		rl.clients = make(map[string]int)
		rl.windowStart = now
	}

	if rl.clients[ip] >= rl.limit {
		return false, rl.window - now.Sub(rl.windowStart)
	}

	rl.clients[ip]++
	return true, 0
}
