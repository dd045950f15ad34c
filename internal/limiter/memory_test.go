package limiter

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestMemory_AllowsExactlyMaxPerWindow(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := NewMemory(3, time.Minute, WithClock(clk.Now))
	ctx := context.Background()

	first, err := l.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, first.Allowed)
	require.Equal(t, clk.Now().Add(time.Minute), first.ResetAt)

	for i := 2; i <= 3; i++ {
		d, err := l.Check(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.Truef(t, d.Allowed, "attempt %d", i)
		require.Equal(t, first.ResetAt, d.ResetAt)
	}

	d, err := l.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, first.ResetAt, d.ResetAt)

	// other identifiers are independent
	other, err := l.Check(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, other.Allowed)
}

func TestMemory_NewWindowAfterReset(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := NewMemory(1, time.Minute, WithClock(clk.Now))
	ctx := context.Background()

	d, _ := l.Check(ctx, "id")
	require.True(t, d.Allowed)
	d, _ = l.Check(ctx, "id")
	require.False(t, d.Allowed)

	// still the same window at exactly resetAt
	clk.Advance(time.Minute)
	d, _ = l.Check(ctx, "id")
	require.False(t, d.Allowed)

	clk.Advance(time.Millisecond)
	d, _ = l.Check(ctx, "id")
	require.True(t, d.Allowed)
	require.Equal(t, clk.Now().Add(time.Minute), d.ResetAt)

	// the fresh window started with count 1, so max=1 blocks the next attempt
	d, _ = l.Check(ctx, "id")
	require.False(t, d.Allowed)
}

func TestMemory_SweepsExpiredWindows(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := NewMemory(5, time.Second, WithClock(clk.Now))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = l.Check(ctx, fmt.Sprintf("id-%d", i))
	}
	require.Equal(t, 4, l.size())

	clk.Advance(2 * time.Second)
	_, _ = l.Check(ctx, "fresh")
	require.Equal(t, 1, l.size())
}

func TestMemory_Defaults(t *testing.T) {
	t.Parallel()

	l := NewMemory(0, 0)
	require.Equal(t, DefaultMax, l.max)
	require.Equal(t, DefaultWindow, l.window)
}

func TestMemory_ConcurrentChecksDoNotLoseUpdates(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := NewMemory(50, time.Hour, WithClock(clk.Now))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Check(ctx, "shared")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 50, allowed)
}
