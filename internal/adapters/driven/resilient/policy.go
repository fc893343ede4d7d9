// Package resilient decorates the AI services with retries, rate limiting
// and per-call timeouts.
package resilient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// Default retry schedule.
const (
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 10 * time.Second
	DefaultMaxTries        = 4
	DefaultMaxElapsed      = 60 * time.Second
)

// Policy controls how a call is retried.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxTries        uint
	MaxElapsed      time.Duration

	// Timeout bounds each attempt. Zero means no per-attempt deadline.
	Timeout time.Duration

	// Limiter throttles attempts. Nil means unlimited.
	Limiter *rate.Limiter

	// OnRetry is called before each retry with the error and the wait.
	OnRetry func(err error, wait time.Duration)
}

// DefaultPolicy returns the default retry schedule without a limiter.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		MaxTries:        DefaultMaxTries,
		MaxElapsed:      DefaultMaxElapsed,
	}
}

// NewLimiter builds a token bucket for rps requests per second.
// A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Do runs op under the policy. Errors not marked with domain.Retryable stop
// the loop at once; the last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	operation := func() (T, error) {
		var zero T
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return zero, backoff.Permanent(err)
			}
		}

		callCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		res, err := op(callCtx)
		if err != nil && !domain.IsRetryable(err) {
			return zero, backoff.Permanent(err)
		}
		return res, err
	}

	bo := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		bo.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		bo.MaxInterval = p.MaxInterval
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug("%s: retrying in %s: %v", name, wait, err)
			if p.OnRetry != nil {
				p.OnRetry(err, wait)
			}
		}),
	}
	if p.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(p.MaxTries))
	}
	if p.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.MaxElapsed))
	}

	return backoff.Retry(ctx, operation, opts...)
}
