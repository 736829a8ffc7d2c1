package hooks

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls the pause between attempts of a failing hook. The
// number of attempts comes from the hook's metadata.
type RetryConfig struct {
	InitialBackoff time.Duration // default: 100ms
	MaxBackoff     time.Duration // default: 2s
	BackoffFactor  float64       // multiplier per retry (default: 2.0)
	JitterFraction float64       // random jitter as fraction of backoff (default: 0.1)
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.1,
	}
}

func (c RetryConfig) backoff(attempt int) time.Duration {
	b := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if b > float64(c.MaxBackoff) {
		b = float64(c.MaxBackoff)
	}
	jitter := b * c.JitterFraction * rand.Float64()
	return time.Duration(b + jitter)
}

// doWithRetry runs fn up to attempts times, each under its own timeout when
// timeout > 0. It returns the first successful result and the number of
// attempts made.
func doWithRetry(ctx context.Context, cfg RetryConfig, hook string, attempts int, timeout time.Duration, fn func(ctx context.Context) (any, error)) (any, int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, attempt, &RetryError{Hook: hook, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(cfg.backoff(attempt)):
			}
		}

		out, err := runAttempt(ctx, timeout, fn)
		if err == nil {
			return out, attempt + 1, nil
		}
		lastErr = err

		// cancelled by the caller, not by the per-attempt timeout
		if ctx.Err() != nil {
			return nil, attempt + 1, &RetryError{Hook: hook, Attempts: attempt + 1, Err: ctx.Err()}
		}
	}

	return nil, attempts, &RetryError{Hook: hook, Attempts: attempts, Err: lastErr}
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (any, error)) (any, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}
