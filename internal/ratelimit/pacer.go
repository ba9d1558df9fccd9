package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a hard floor on request cadence across all sources of
// an engine, independent of the per-source adaptive delay. It is a thin
// wrapper over a token bucket with burst 1.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows one request per interval. A non-positive interval
// disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
