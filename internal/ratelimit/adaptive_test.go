package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig(mode Mode) Config {
	return Config{
		Mode:       mode,
		MinDelay:   100 * time.Millisecond,
		MaxDelay:   1000 * time.Millisecond,
		SampleSize: 5,
		Multiplier: 2,
	}
}

func TestFixedModeIgnoresSamples(t *testing.T) {
	c := NewController(testConfig(Fixed))

	require.Equal(t, 100*time.Millisecond, c.CalculateDelay())

	for i := 0; i < 10; i++ {
		c.RecordResponseTime(5 * time.Second)
	}
	require.Equal(t, 100*time.Millisecond, c.CalculateDelay())
}

func TestAdaptiveEmptyHistoryReturnsMinDelay(t *testing.T) {
	c := NewController(testConfig(Adaptive))
	require.Equal(t, 100*time.Millisecond, c.CalculateDelay())
}

func TestAdaptiveScalesWithMean(t *testing.T) {
	c := NewController(testConfig(Adaptive))

	c.RecordResponseTime(200 * time.Millisecond)
	c.RecordResponseTime(400 * time.Millisecond)

	// mean 300ms * multiplier 2 = 600ms, inside the bounds
	require.Equal(t, 600*time.Millisecond, c.CalculateDelay())
}

func TestAdaptiveClampsToMaxDelay(t *testing.T) {
	c := NewController(testConfig(Adaptive))

	c.RecordResponseTime(10 * time.Second)
	require.Equal(t, 1000*time.Millisecond, c.CalculateDelay())
}

func TestAdaptiveClampsToMinDelay(t *testing.T) {
	c := NewController(testConfig(Adaptive))

	c.RecordResponseTime(10 * time.Millisecond)
	// mean 10ms * 2 = 20ms, below the floor
	require.Equal(t, 100*time.Millisecond, c.CalculateDelay())
}

func TestSlidingWindowEviction(t *testing.T) {
	c := NewController(testConfig(Adaptive))

	// fill the window with a distinctively slow first sample
	c.RecordResponseTime(1000 * time.Millisecond)
	for i := 0; i < 4; i++ {
		c.RecordResponseTime(100 * time.Millisecond)
	}
	require.Equal(t, 5, c.Stats().Samples)
	before := c.Stats().AvgResponseTime

	// one more sample evicts the slow outlier
	c.RecordResponseTime(100 * time.Millisecond)
	after := c.Stats()

	require.Equal(t, 5, after.Samples)
	require.Less(t, after.AvgResponseTime, before)
	require.Equal(t, 100*time.Millisecond, after.AvgResponseTime)
}

func TestExecuteWithTimingRecordsOnSuccess(t *testing.T) {
	c := NewController(testConfig(Adaptive))

	err := c.ExecuteWithTiming(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, c.Stats().Samples)
}

func TestExecuteWithTimingFailureIsolation(t *testing.T) {
	c := NewController(testConfig(Adaptive))
	opErr := errors.New("connection refused")

	err := c.ExecuteWithTiming(context.Background(), func(ctx context.Context) error {
		time.Sleep(time.Millisecond)
		return opErr
	})
	require.ErrorIs(t, err, opErr)
	require.Equal(t, 0, c.Stats().Samples)
}

func TestWaitReturnsDurationWaited(t *testing.T) {
	cfg := testConfig(Fixed)
	cfg.MinDelay = 10 * time.Millisecond
	c := NewController(cfg)

	start := time.Now()
	waited, err := c.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10*time.Millisecond, waited)
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestWaitCancellation(t *testing.T) {
	cfg := testConfig(Fixed)
	cfg.MinDelay = 10 * time.Second
	c := NewController(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, 0, c.Stats().Samples)
}

func TestStatsEmptyHistory(t *testing.T) {
	c := NewController(testConfig(Adaptive))

	stats := c.Stats()
	require.Equal(t, 0, stats.Samples)
	require.Zero(t, stats.AvgResponseTime)
	require.Zero(t, stats.MinResponseTime)
	require.Zero(t, stats.MaxResponseTime)
	require.Equal(t, 100*time.Millisecond, stats.CurrentDelay)
}

func TestStatsMinMax(t *testing.T) {
	c := NewController(testConfig(Adaptive))

	c.RecordResponseTime(300 * time.Millisecond)
	c.RecordResponseTime(100 * time.Millisecond)
	c.RecordResponseTime(200 * time.Millisecond)

	stats := c.Stats()
	require.Equal(t, 3, stats.Samples)
	require.Equal(t, 100*time.Millisecond, stats.MinResponseTime)
	require.Equal(t, 300*time.Millisecond, stats.MaxResponseTime)
	require.Equal(t, 200*time.Millisecond, stats.AvgResponseTime)
}

func TestConcurrentRecording(t *testing.T) {
	c := NewController(testConfig(Adaptive))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordResponseTime(50 * time.Millisecond)
				c.CalculateDelay()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 5, c.Stats().Samples)
}

func TestPacer(t *testing.T) {
	p := NewPacer(5 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	// first token is immediate, the next two are paced
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	unpaced := NewPacer(0)
	require.NoError(t, unpaced.Wait(context.Background()))
}
