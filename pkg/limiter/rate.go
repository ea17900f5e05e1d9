package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter
// Specialized component to pace how fast validations may start.
// Responsibilities:
// - Gate each validation behind a global token bucket
// - Respect caller cancellation while waiting
// The limiter is scoped to a single seeding call; it is never shared
// across domains.
type Limiter interface {
	Wait(ctx context.Context) error
}

type hitsPerSecond struct {
	bucket *rate.Limiter
}

// NewHitsPerSecond returns a Limiter that lets at most n operations start
// per second. Returns nil when n <= 0, which callers treat as unlimited.
func NewHitsPerSecond(n int) Limiter {
	if n <= 0 {
		return nil
	}
	return &hitsPerSecond{
		bucket: rate.NewLimiter(rate.Limit(n), n),
	}
}

func (h *hitsPerSecond) Wait(ctx context.Context) error {
	return h.bucket.Wait(ctx)
}
