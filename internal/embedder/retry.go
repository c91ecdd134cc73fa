package embedder

import (
	"context"
	"time"
)

// withRetry calls fn up to MaxRetries times with exponential backoff
// between attempts, capped at MaxBackoffMs. A canceled context stops
// further attempts; the last provider error is returned otherwise.
func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T

	delay := InitialBackoffMs * time.Millisecond
	for attempt := 1; ; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if attempt >= MaxRetries {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * BackoffMultiplier)
		if delay > MaxBackoffMs*time.Millisecond {
			delay = MaxBackoffMs * time.Millisecond
		}
	}
}
