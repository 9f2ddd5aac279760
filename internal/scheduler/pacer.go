package scheduler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces successive upstream calls to rate-limit load on the provider.
type Pacer interface {
	Wait(ctx context.Context) error
}

type limiterPacer struct {
	limiter *rate.Limiter
}

// NewFixedDelayPacer returns a Pacer that enforces a fixed delay between
// successive Wait calls. A non-positive delay disables pacing, which is what
// tests use.
func NewFixedDelayPacer(delay time.Duration) Pacer {
	if delay <= 0 {
		return &limiterPacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &limiterPacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

func (p *limiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
