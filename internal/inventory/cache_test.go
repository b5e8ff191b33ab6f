package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTTLCache_ExpiryAndEviction(t *testing.T) {
	var now atomic.Int64
	now.Store(time.Now().UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }

	c := NewTTLCache[int](50*time.Millisecond, time.Hour, clock)
	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	now.Add(int64(40 * time.Millisecond))
	_, ok = c.Get("a")
	require.True(t, ok)

	now.Add(int64(20 * time.Millisecond))
	_, ok = c.Get("a")
	require.False(t, ok)
	require.Equal(t, 1, c.Len())

	c.EvictExpired()
	require.Zero(t, c.Len())
}

func TestTTLCache_ReadsDoNotExtend(t *testing.T) {
	var now atomic.Int64
	clock := func() time.Time { return time.Unix(0, now.Load()) }
	c := NewTTLCache[string](10*time.Second, time.Hour, clock)

	c.Set("k", "v")
	for i := 0; i < 5; i++ {
		now.Add(int64(3 * time.Second))
		c.Get("k")
	}
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestTTLCache_GetOrComputeSharesWork(t *testing.T) {
	c := NewTTLCache[int](time.Minute, time.Minute, nil)
	var calls atomic.Int64
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			results[i], errs[i] = v, err
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, v := range results {
		require.NoError(t, errs[i])
		require.Equal(t, 7, v)
	}
	require.LessOrEqual(t, calls.Load(), int64(8))
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, 7, v)

	_, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
		t.Fatal("cached value should be served")
		return 0, nil
	})
	require.NoError(t, err)
}

func TestTTLCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c := NewTTLCache[int](time.Minute, time.Minute, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (int, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 7, nil
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(firstCtx, "42", compute)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := c.GetOrCompute(context.Background(), "42", func(context.Context) (int, error) {
			return 0, errors.New("shared computation should be joined or cached")
		})
		second <- result{v, err}
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	require.Equal(t, 7, got.v)

	v, ok := c.Get("42")
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestTTLCache_ComputeTimeout(t *testing.T) {
	c := NewTTLCache[int](time.Minute, time.Minute, nil)
	c.SetComputeTimeout(10 * time.Millisecond)
	_, err := c.GetOrCompute(context.Background(), "42", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, c.Len())
}

func TestTTLCache_ErrorsNotCached(t *testing.T) {
	c := NewTTLCache[int](time.Minute, time.Minute, nil)
	boom := errors.New("boom")
	_, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	require.Zero(t, c.Len())

	v, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestTTLCache_StartClose(t *testing.T) {
	var now atomic.Int64
	clock := func() time.Time { return time.Unix(0, now.Load()) }
	c := NewTTLCache[int](time.Second, 5*time.Millisecond, clock)
	c.Start()
	c.Set("a", 1)
	now.Add(int64(2 * time.Second))

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

	c.Set("b", 2)
	require.NoError(t, c.Close(context.Background()))
	require.Zero(t, c.Len())
	require.NoError(t, c.Close(context.Background()))
}
