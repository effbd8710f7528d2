package timer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithTickerImmediate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- RunWithTicker(ctx, "test", &Interval{Duration: time.Hour, Immediate: true}, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunWithTickerTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go RunWithTicker(ctx, "test", &Interval{Duration: 10 * time.Millisecond, Jitter: 2 * time.Millisecond}, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRunWithTickerStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	err := RunWithTicker(context.Background(), "test", &Interval{Duration: 5 * time.Millisecond}, func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunWithTickerRejectsBadInterval(t *testing.T) {
	noop := func(context.Context) error { return nil }

	assert.Error(t, RunWithTicker(context.Background(), "zero", &Interval{}, noop))
	assert.Error(t, RunWithTicker(context.Background(), "jitter", &Interval{Duration: time.Second, Jitter: time.Second}, noop))
}

func TestTickerJitterBounds(t *testing.T) {
	j := tickerJitter{MaxJitter: 100 * time.Millisecond}
	for range 1000 {
		d := j.Jitter(time.Second)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.Less(t, d, 1100*time.Millisecond)
	}
	assert.Equal(t, time.Second, tickerJitter{}.Jitter(time.Second))
}
