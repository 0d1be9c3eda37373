package ratelimiter

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoLimiter is returned by a registry that has no limiter for a model.
var ErrNoLimiter = errors.New("rate limiter not found")

// RateLimiterRegistry holds one limiter per model name.
type RateLimiterRegistry interface {
	Get(model string) (Limiter, error)
	Set(model string, limiter Limiter)
}

type rateLimiterMapRegistry struct {
	registry map[string]Limiter
	mu       sync.RWMutex
}

// NewRateLimiterRegistry creates a new in-memory rate limiter registry.
func NewRateLimiterRegistry() RateLimiterRegistry {
	return &rateLimiterMapRegistry{
		registry: make(map[string]Limiter),
	}
}

func (r *rateLimiterMapRegistry) Get(model string) (Limiter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, exists := r.registry[model]
	if !exists {
		return nil, fmt.Errorf("%w for model: %s", ErrNoLimiter, model)
	}
	return limiter, nil
}

// Set registers limiter for model; a nil limiter removes it.
func (r *rateLimiterMapRegistry) Set(model string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter == nil {
		delete(r.registry, model)
		return
	}
	r.registry[model] = limiter
}
