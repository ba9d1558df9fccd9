package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Mode selects how Controller computes its delay.
type Mode string

const (
	// Fixed always waits MinDelay, ignoring recorded samples.
	Fixed Mode = "fixed"
	// Adaptive scales the delay off the rolling mean response time.
	Adaptive Mode = "adaptive"
)

type Config struct {
	Mode Mode
	// bounds of the computed delay
	MinDelay time.Duration
	MaxDelay time.Duration
	// maximum number of retained response time samples
	SampleSize int
	// factor applied to the rolling average, e.g. 1.2 waits 20% longer
	// than the average response time
	Multiplier float64
}

func DefaultConfig() Config {
	return Config{
		Mode:       Adaptive,
		MinDelay:   200 * time.Millisecond,
		MaxDelay:   2500 * time.Millisecond,
		SampleSize: 10,
		Multiplier: 1.2,
	}
}

// Controller spaces out outbound requests. In adaptive mode it reacts
// to observed latency: the slower the target responds, the longer the
// computed delay, clamped to [MinDelay, MaxDelay]. The mode is set at
// construction and never changes.
//
// RecordResponseTime and Stats are safe for concurrent use; the sample
// window is guarded by a mutex so readers always observe either the
// pre- or post-update window, never a torn one.
type Controller struct {
	config Config

	mu      sync.Mutex
	samples []time.Duration
}

func NewController(config Config) *Controller {
	return &Controller{
		config:  config,
		samples: make([]time.Duration, 0, config.SampleSize),
	}
}

// RecordResponseTime appends a sample to the sliding window, evicting
// the oldest sample once the window is full.
func (c *Controller) RecordResponseTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.samples) >= c.config.SampleSize {
		c.samples = c.samples[1:]
	}
	c.samples = append(c.samples, d)

	slog.Debug("recorded response time", "duration", d, "samples", len(c.samples))
}

// CalculateDelay returns the delay to apply before the next request.
// With no samples recorded yet it returns MinDelay.
func (c *Controller) CalculateDelay() time.Duration {
	if c.config.Mode == Fixed {
		return c.config.MinDelay
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.samples) == 0 {
		return c.config.MinDelay
	}

	var sum time.Duration
	for _, s := range c.samples {
		sum += s
	}
	avgMs := float64(sum.Milliseconds()) / float64(len(c.samples))
	delay := time.Duration(avgMs*c.config.Multiplier) * time.Millisecond

	if delay < c.config.MinDelay {
		delay = c.config.MinDelay
	}
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	return delay
}

// Wait sleeps for CalculateDelay and returns the duration waited. It
// only suspends the calling goroutine; cancelling ctx aborts the wait
// without recording anything.
func (c *Controller) Wait(ctx context.Context) (time.Duration, error) {
	delay := c.CalculateDelay()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return delay, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ExecuteWithTiming runs op and feeds its wall-clock duration into the
// sample window, but only when op succeeds. Failed requests (timeouts,
// refused connections) must not drag the latency baseline, so their
// timing is discarded and the error returned verbatim.
func (c *Controller) ExecuteWithTiming(ctx context.Context, op func(ctx context.Context) error) error {
	start := time.Now()
	err := op(ctx)
	if err != nil {
		return err
	}
	c.RecordResponseTime(time.Since(start))
	return nil
}

type Stats struct {
	Samples         int           `json:"samples"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	MinResponseTime time.Duration `json:"min_response_time"`
	MaxResponseTime time.Duration `json:"max_response_time"`
	CurrentDelay    time.Duration `json:"current_delay"`
}

// Stats snapshots the retained samples. On an empty history all
// durations are zero except CurrentDelay, which reflects the delay the
// next Wait would use.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	n := len(c.samples)
	var sum, min, max time.Duration
	for i, s := range c.samples {
		sum += s
		if i == 0 || s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	c.mu.Unlock()

	stats := Stats{Samples: n, CurrentDelay: c.CalculateDelay()}
	if n > 0 {
		stats.AvgResponseTime = sum / time.Duration(n)
		stats.MinResponseTime = min
		stats.MaxResponseTime = max
	}
	return stats
}
