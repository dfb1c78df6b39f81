package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledLimiterAlwaysAdmits(t *testing.T) {
	l := New(0)
	assert.False(t, l.Enabled())
	assert.NoError(t, l.Reserve(1_000_000))
	assert.NoError(t, l.Wait(context.Background(), 1_000_000))
}

func TestReserveDrainsBucket(t *testing.T) {
	l := New(1000)

	require.NoError(t, l.Reserve(600))
	require.NoError(t, l.Reserve(300))
	assert.ErrorIs(t, l.Reserve(300), ErrRateLimit)
}

func TestBucketRefillsOverTime(t *testing.T) {
	l := New(60_000) // 1000 tokens per second

	require.NoError(t, l.Reserve(60_000))
	assert.ErrorIs(t, l.Reserve(100), ErrRateLimit)

	time.Sleep(300 * time.Millisecond)
	assert.NoError(t, l.Reserve(100))
}

func TestWaitRespectsContext(t *testing.T) {
	l := New(100)
	require.NoError(t, l.Reserve(100))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, 100)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOversizedRequestClampedToBucket(t *testing.T) {
	l := New(500)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, l.Wait(ctx, 10_000))
}
