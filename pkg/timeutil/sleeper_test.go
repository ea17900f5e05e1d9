package timeutil_test

import (
	"context"
	"testing"
	"time"

	"github.com/rohmanhakim/url-seeder/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealSleeper_SleepsRoughlyTheRequestedDuration(t *testing.T) {
	sleeper := timeutil.NewRealSleeper()

	start := time.Now()
	err := sleeper.Sleep(context.Background(), 30*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRealSleeper_NonPositiveReturnsImmediately(t *testing.T) {
	sleeper := timeutil.NewRealSleeper()

	start := time.Now()
	require.NoError(t, sleeper.Sleep(context.Background(), 0))
	require.NoError(t, sleeper.Sleep(context.Background(), -time.Second))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRealSleeper_CancelledWhileSleeping(t *testing.T) {
	sleeper := timeutil.NewRealSleeper()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := sleeper.Sleep(ctx, 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
