package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter limits both tokens and requests per minute.
type RateLimiter struct {
	TokensBucket   *TokenBucket
	RequestsBucket *TokenBucket

	mu sync.Mutex
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New creates a RateLimiter allowing tokensPerMinute tokens and
// requestsPerMinute requests per minute. A non-positive value disables
// that dimension.
func New(tokensPerMinute, requestsPerMinute int) *RateLimiter {
	// Tokens and requests are replenished per minute, hence refillInterval is 1 minute.
	refillInterval := time.Minute
	return &RateLimiter{
		TokensBucket:   NewTokenBucket(tokensPerMinute, tokensPerMinute, refillInterval),
		RequestsBucket: NewTokenBucket(requestsPerMinute, requestsPerMinute, refillInterval),
	}
}

// HasCapacity checks if tokens are available WITHOUT consuming them.
func (rl *RateLimiter) HasCapacity(numTokens int) bool {
	return rl.TokensBucket.HasCapacity(numTokens) && rl.RequestsBucket.HasCapacity(1)
}

// TryConsume consumes numTokens and one request, or nothing if either bucket
// lacks capacity.
func (rl *RateLimiter) TryConsume(numTokens int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.HasCapacity(numTokens) {
		return false
	}
	return rl.TokensBucket.TryConsume(numTokens) && rl.RequestsBucket.TryConsume(1)
}

// TimeUntilAvailable returns how long until the specified tokens would be available.
// This does not modify state - use for informational purposes.
func (rl *RateLimiter) TimeUntilAvailable(tokens int) time.Duration {
	tokenWait := rl.TokensBucket.TimeUntilAvailable(tokens)
	requestWait := rl.RequestsBucket.TimeUntilAvailable(1)
	if tokenWait > requestWait {
		return tokenWait
	}
	return requestWait
}

// TokenBucket implements a token bucket rate limit algorithm.
// A bucket with non-positive capacity is unlimited.
type TokenBucket struct {
	mu             sync.Mutex
	capacity       int
	remaining      int
	refillInterval time.Duration
	lastRefill     time.Time
}

// NewTokenBucket creates a new token bucket.
func NewTokenBucket(capacity int, initialTokens int, refillInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:       capacity,
		remaining:      initialTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
	}
}

func (tb *TokenBucket) unlimited() bool {
	return tb.capacity <= 0
}

// HasCapacity checks if tokens are available WITHOUT consuming them.
func (tb *TokenBucket) HasCapacity(tokens int) bool {
	if tb.unlimited() {
		return true
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()
	remaining := tb.remaining
	if time.Since(tb.lastRefill) >= tb.refillInterval {
		remaining = tb.capacity
	}
	return tokens <= remaining
}

// TryConsume tries to consume a specified number of tokens from the bucket.
func (tb *TokenBucket) TryConsume(tokens int) bool {
	if tb.unlimited() {
		return true
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillInterval {
		tb.remaining = tb.capacity
		tb.lastRefill = now
	}
	if tokens <= tb.remaining {
		tb.remaining -= tokens
		return true
	}
	return false
}

// TimeUntilAvailable returns how long until tokens would be available (read-only).
func (tb *TokenBucket) TimeUntilAvailable(tokens int) time.Duration {
	if tb.unlimited() {
		return 0
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()

	timeSinceLastRefill := time.Since(tb.lastRefill)

	// Calculate current effective remaining (with partial refill)
	effectiveRemaining := tb.remaining
	if timeSinceLastRefill >= tb.refillInterval {
		effectiveRemaining = tb.capacity
	} else if timeSinceLastRefill > 0 {
		replenishedTokens := int(float64(tb.capacity) * (float64(timeSinceLastRefill) / float64(tb.refillInterval)))
		effectiveRemaining = min(tb.capacity, tb.remaining+replenishedTokens)
	}

	if tokens <= effectiveRemaining {
		return 0
	}

	tokensNeeded := tokens - effectiveRemaining
	tokenRefillRate := float64(tb.capacity) / float64(tb.refillInterval)
	waitDuration := time.Duration(float64(tokensNeeded) / tokenRefillRate)

	// Add a small buffer (10% extra time)
	return waitDuration + (waitDuration / 10)
}
