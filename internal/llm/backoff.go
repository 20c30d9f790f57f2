package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffConfig shapes the wait between attempts after a transport
// failure. Providers never retry on their own; the caller decides whether
// another attempt is worth making.
type BackoffConfig struct {
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// Wait computes the pause before the next attempt. attempt is zero-based.
// Content failures need no pause and return zero.
func (c BackoffConfig) Wait(attempt int, err error) time.Duration {
	if err == nil || !IsTransport(err) {
		return 0
	}

	// Respect RetryAfter for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(c.InitialWait) * math.Pow(c.Multiplier, float64(attempt))
	if wait > float64(c.MaxWait) {
		wait = float64(c.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
