package youtube

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit stays well below the per-user limits of the Data API.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10}

// RateLimiter throttles API requests with a token bucket and honours
// a backoff period after the API reports rate limiting.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultRateLimit
	}
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// Backoff delays further requests by d. Shorter backoffs never replace a
// longer one already in place.
func (r *RateLimiter) Backoff(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if at := time.Now().Add(d); at.After(r.retryAt) {
		r.retryAt = at
	}
}
