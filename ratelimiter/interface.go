package ratelimiter

import (
	"time"
)

// Limiter defines the interface for rate limiters.
// Implementations can be local (in-memory) or distributed (Redis, etc.).
// Limiters only admit or reject; callers never block on them.
type Limiter interface {
	// TryConsume atomically checks capacity and consumes tokens if available.
	// Returns true if tokens were consumed, false if insufficient capacity.
	TryConsume(numTokens int) bool

	// TimeUntilAvailable returns how long until tokens would be available (read-only).
	TimeUntilAvailable(tokens int) time.Duration
}
