package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLimiterWindow(t *testing.T) {
	limiter := NewInMemory(time.Minute)

	for i := 1; i <= 10; i++ {
		decision := limiter.Allow("203.0.113.7", 10)
		require.True(t, decision.Allowed, "request %d should pass", i)
		assert.Equal(t, i, decision.Count)
		assert.Equal(t, 10-i, decision.Remaining)
	}

	decision := limiter.Allow("203.0.113.7", 10)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 11, decision.Count)
	assert.Equal(t, 0, decision.Remaining)
}

func TestInMemoryLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewInMemory(time.Minute)

	for i := 0; i < 10; i++ {
		limiter.Allow("203.0.113.7", 10)
	}
	assert.False(t, limiter.Allow("203.0.113.7", 10).Allowed)
	assert.True(t, limiter.Allow("198.51.100.2", 10).Allowed)
}

func TestInMemoryLimiterWindowExpiry(t *testing.T) {
	limiter := NewInMemory(20 * time.Millisecond)

	for i := 0; i < 3; i++ {
		limiter.Allow("203.0.113.7", 2)
	}
	assert.False(t, limiter.Allow("203.0.113.7", 2).Allowed)

	time.Sleep(30 * time.Millisecond)

	decision := limiter.Allow("203.0.113.7", 2)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Count)
}

func TestInMemoryLimiterSweepDropsExpiredEntries(t *testing.T) {
	limiter := NewInMemory(10 * time.Millisecond)

	for i := 0; i < 50; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i), 5)
	}
	limiter.mu.Lock()
	before := len(limiter.items)
	limiter.mu.Unlock()
	require.Equal(t, 50, before)

	time.Sleep(20 * time.Millisecond)
	limiter.Allow("fresh", 5)

	limiter.mu.Lock()
	after := len(limiter.items)
	limiter.mu.Unlock()
	assert.Equal(t, 1, after)
}

func TestInMemoryLimiterConcurrentCounting(t *testing.T) {
	limiter := NewInMemory(time.Minute)

	const total = 100
	var wg sync.WaitGroup
	allowed := make(chan bool, total)
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- limiter.Allow("shared", 10).Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	passed := 0
	for ok := range allowed {
		if ok {
			passed++
		}
	}
	assert.Equal(t, 10, passed)
}

func TestInMemoryLimiterDefaults(t *testing.T) {
	limiter := NewInMemory(0)
	assert.Equal(t, time.Minute, limiter.window)

	decision := limiter.Allow("k", 0)
	assert.Equal(t, 1, decision.Limit)
	assert.True(t, decision.Allowed)
	assert.False(t, limiter.Allow("k", 0).Allowed)
}
