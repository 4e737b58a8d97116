package requestmanager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// immediate returns a config with no pacing so suppliers run right away.
func immediate(ttl time.Duration) Config {
	return Config{TTL: ttl}
}

func TestExecuteEmptyKey(t *testing.T) {
	m := New(immediate(time.Minute))

	_, err := m.Execute(context.Background(), "", func(ctx context.Context) (any, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, ErrEmptyKey)
}

func TestCacheHitSkipsSupplier(t *testing.T) {
	m := New(immediate(time.Minute))

	var calls atomic.Int32
	supplier := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "balance", nil
	}

	first, err := m.Execute(context.Background(), "balance:xch1abc", supplier)
	require.NoError(t, err)

	second, err := m.Execute(context.Background(), "balance:xch1abc", supplier)
	require.NoError(t, err)

	require.EqualValues(t, 1, calls.Load())
	require.Equal(t, first, second)
	require.Equal(t, "balance", second)
}

func TestInflightDeduplication(t *testing.T) {
	m := New(immediate(time.Minute))

	release := make(chan struct{})
	var calls atomic.Int32
	supplier := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const waiters = 8
	results := make([]any, waiters)
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Execute(context.Background(), "shared", supplier)
		}(i)
	}

	// Let every waiter join the single pending request before it settles.
	require.Eventually(t, func() bool {
		return m.Stats().PendingCount == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for i := 0; i < waiters; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, 42, results[i])
	}
}

func TestTTLExpiry(t *testing.T) {
	testClock := clock.NewTestClock(testTime)
	m := New(immediate(30*time.Second), WithClock(testClock))

	var calls atomic.Int32
	supplier := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return calls.Load(), nil
	}

	_, err := m.Execute(context.Background(), "k", supplier)
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())

	// Still inside the TTL window.
	testClock.SetTime(testTime.Add(29 * time.Second))
	_, err = m.Execute(context.Background(), "k", supplier)
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())

	// Past the TTL the entry must not be served.
	testClock.SetTime(testTime.Add(31 * time.Second))
	result, err := m.Execute(context.Background(), "k", supplier)
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
	require.EqualValues(t, 2, result)
}

func TestThrottleSpacing(t *testing.T) {
	const throttle = 100 * time.Millisecond
	m := New(Config{TTL: time.Minute, Throttle: throttle})

	var first, second time.Time
	_, err := m.Execute(context.Background(), "k1", func(ctx context.Context) (any, error) {
		first = time.Now()
		return nil, nil
	})
	require.NoError(t, err)

	_, err = m.Execute(context.Background(), "k2", func(ctx context.Context) (any, error) {
		second = time.Now()
		return nil, nil
	})
	require.NoError(t, err)

	// Margin below the configured spacing to absorb timer granularity.
	require.GreaterOrEqual(t, second.Sub(first), 90*time.Millisecond)
}

func TestFailurePropagatesToAllWaiters(t *testing.T) {
	m := New(immediate(time.Minute))

	errBoom := errors.New("explorer returned 502")
	release := make(chan struct{})
	var calls atomic.Int32
	failing := func(ctx context.Context) (any, error) {
		calls.Add(1)
		if calls.Load() == 1 {
			<-release
		}
		return nil, errBoom
	}

	const waiters = 4
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Execute(context.Background(), "k", failing)
		}(i)
	}

	require.Eventually(t, func() bool {
		return m.Stats().PendingCount == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for i := 0; i < waiters; i++ {
		require.ErrorIs(t, errs[i], errBoom)
	}

	// Failures are never cached; the next call invokes the supplier again.
	_, err := m.Execute(context.Background(), "k", failing)
	require.ErrorIs(t, err, errBoom)
	require.EqualValues(t, 2, calls.Load())
}

func TestContextCancelAbandonsWaitOnly(t *testing.T) {
	m := New(Config{TTL: time.Minute, Debounce: 50 * time.Millisecond})

	var calls atomic.Int32
	supplier := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Execute(ctx, "k", supplier)
	require.ErrorIs(t, err, context.Canceled)

	// The supplier still completes and populates the cache.
	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	result, err := m.Execute(context.Background(), "k", supplier)
	require.NoError(t, err)
	require.Equal(t, "late", result)
	require.EqualValues(t, 1, calls.Load())
}

func TestClear(t *testing.T) {
	m := New(immediate(time.Minute))

	var calls atomic.Int32
	supplier := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, nil
	}

	_, err := m.Execute(context.Background(), "k", supplier)
	require.NoError(t, err)

	m.Clear("k")

	_, err = m.Execute(context.Background(), "k", supplier)
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	m.ClearAll()
	require.Zero(t, m.Stats().Size)
}

func TestStatsReportsExpiredEntries(t *testing.T) {
	testClock := clock.NewTestClock(testTime)
	m := New(immediate(30*time.Second), WithClock(testClock))

	supplier := func(ctx context.Context) (any, error) {
		return nil, nil
	}

	_, err := m.Execute(context.Background(), "old", supplier)
	require.NoError(t, err)

	testClock.SetTime(testTime.Add(20 * time.Second))
	_, err = m.Execute(context.Background(), "fresh", supplier)
	require.NoError(t, err)

	// "old" is now 35s old and expired, "fresh" is 15s old and live.
	// Lazy eviction keeps the expired entry in the map until its next read.
	testClock.SetTime(testTime.Add(35 * time.Second))

	stats := m.Stats()
	require.Equal(t, 2, stats.Size)
	require.Zero(t, stats.PendingCount)
	require.Len(t, stats.Entries, 2)

	byKey := make(map[string]EntryStats)
	for _, entry := range stats.Entries {
		byKey[entry.Key] = entry
	}
	require.False(t, byKey["fresh"].Expired)
	require.True(t, byKey["old"].Expired)
}

func TestStatsTracksPending(t *testing.T) {
	m := New(Config{TTL: time.Minute, Debounce: 100 * time.Millisecond})

	go func() {
		_, _ = m.Execute(context.Background(), "slow", func(ctx context.Context) (any, error) {
			return nil, nil
		})
	}()

	require.Eventually(t, func() bool {
		return m.Stats().PendingCount == 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		stats := m.Stats()
		return stats.PendingCount == 0 && stats.Size == 1
	}, time.Second, 5*time.Millisecond)
}
