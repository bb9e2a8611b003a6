package middleware

import (
	"sync"
	"time"
)

// RateLimiter caps how fast one user can drive the bot: at most limit
// hits per sliding window. Hit timestamps are trimmed in place on every
// call, and a background sweep drops users who went idle, so the map
// does not grow with every visitor ever seen.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[int64][]time.Time
	limit  int
	window time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter starts the background sweep; call Close on shutdown.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		stop:   make(chan struct{}),
	}
	// The sweep only reclaims memory; correctness lives in Allow.
	go rl.sweep(10 * window)
	return rl
}

// Close stops the background sweep goroutine.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow records a hit for the user and reports whether it stays within
// the limit.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	fresh := rl.hits[userID][:0]
	for _, t := range rl.hits[userID] {
		if now.Sub(t) < rl.window {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.hits[userID] = fresh
		return false
	}
	rl.hits[userID] = append(fresh, now)
	return true
}

// sweep deletes users whose newest hit fell out of the window.
func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.window)
			rl.mu.Lock()
			for id, hits := range rl.hits {
				if len(hits) == 0 || hits[len(hits)-1].Before(cutoff) {
					delete(rl.hits, id)
				}
			}
			rl.mu.Unlock()
		}
	}
}
