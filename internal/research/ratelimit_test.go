package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterMinDelay(t *testing.T) {
	l := NewLimiter(50*time.Millisecond, 0)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterWindowCap(t *testing.T) {
	l := NewLimiter(0, 3)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "first perMin calls must not block")
}

func TestLimiterCancellation(t *testing.T) {
	l := NewLimiter(time.Hour, 0)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, l.Wait(ctx))

	done := make(chan error, 1)
	go func() { done <- l.Wait(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not honor cancellation")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0, 0)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
