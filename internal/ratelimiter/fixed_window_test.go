package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow_AllowsUpToLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("1.2.3.4")
		assert.True(t, ok)
	}

	ok, retryAfter := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))

	// A different client has its own budget.
	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok)
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	rl := NewFixedWindowLimiter(1, 10*time.Millisecond)

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.False(t, ok)

	time.Sleep(15 * time.Millisecond)

	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
}
