package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	const userID = int64(7)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(userID), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow(userID), "fourth request must be limited")

	// Another user has an independent window.
	assert.True(t, rl.Allow(8))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(2, 50*time.Millisecond)
	defer rl.Close()

	const userID = int64(7)
	assert.True(t, rl.Allow(userID))
	assert.True(t, rl.Allow(userID))
	assert.False(t, rl.Allow(userID))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow(userID), "window should have slid past old requests")
}

func TestRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Close()
	rl.Close()
}
