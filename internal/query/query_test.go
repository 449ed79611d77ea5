package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClient(t *testing.T, cfg Config) (*Client, *fakeClock) {
	t.Helper()
	cfg.Logger = zerolog.Nop()
	c := NewClient(cfg)
	clock := &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	c.now = clock.Now
	t.Cleanup(c.Close)
	return c, clock
}

// counter returns a fetcher yielding 1, 2, 3... and the number of calls.
func counter() (Fetcher, *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}, &calls
}

func TestQuery_FreshServedFromCache(t *testing.T) {
	c, clock := newTestClient(t, Config{StaleTime: time.Minute})
	fetch, calls := counter()
	key := NewKey("assets", map[string]int{"page": 1})
	ctx := context.Background()

	res, err := c.Query(ctx, key, fetch, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data)
	assert.False(t, res.Stale)

	clock.Advance(30 * time.Second)
	res, err = c.Query(ctx, key, fetch, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data)
	assert.EqualValues(t, 1, calls.Load())
}

func TestQuery_StaleWhileRevalidate(t *testing.T) {
	c, clock := newTestClient(t, Config{StaleTime: time.Minute})
	fetch, calls := counter()
	key := NewKey("assets", nil)
	ctx := context.Background()

	_, err := c.Query(ctx, key, fetch, Options{})
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	res, err := c.Query(ctx, key, fetch, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data, "stale data is returned immediately")
	assert.True(t, res.Stale)

	assert.Eventually(t, func() bool {
		got, ok := c.Peek(key)
		return ok && got.Data == 2
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, calls.Load())
}

func TestQuery_PerQueryStaleTime(t *testing.T) {
	c, clock := newTestClient(t, Config{StaleTime: time.Hour})
	fetch, _ := counter()
	key := NewKey("activityLogs", nil)
	ctx := context.Background()

	_, err := c.Query(ctx, key, fetch, Options{StaleTime: 30 * time.Second})
	require.NoError(t, err)
	clock.Advance(31 * time.Second)

	res, err := c.Query(ctx, key, fetch, Options{StaleTime: 30 * time.Second})
	require.NoError(t, err)
	assert.True(t, res.Stale)
}

func TestQuery_ConcurrentCallsShareOneFetch(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "page", nil
	}
	key := NewKey("assets", "logo")

	const n = 10
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Query(context.Background(), key, fetch, Options{})
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, r := range results {
		assert.Equal(t, "page", r.Data)
	}
}

func TestQuery_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		<-release
		return "ok", nil
	}
	key := NewKey("asset", "a1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Query(ctx, key, fetch, Options{})
		done <- err
	}()

	second := make(chan Result, 1)
	go func() {
		res, _ := c.Query(context.Background(), key, fetch, Options{})
		second <- res
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.Equal(t, "ok", (<-second).Data)
}

func TestQuery_FailedRefetchKeepsData(t *testing.T) {
	c, clock := newTestClient(t, Config{StaleTime: time.Minute})
	var fail atomic.Bool
	fetch := func(context.Context) (any, error) {
		if fail.Load() {
			return nil, errors.New("offline")
		}
		return "v1", nil
	}
	key := NewKey("users", nil)

	_, err := c.Query(context.Background(), key, fetch, Options{})
	require.NoError(t, err)

	fail.Store(true)
	clock.Advance(2 * time.Minute)
	_, err = c.Query(context.Background(), key, fetch, Options{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, _ := c.Peek(key)
		return got.Err != nil
	}, time.Second, 5*time.Millisecond)
	got, _ := c.Peek(key)
	assert.Equal(t, "v1", got.Data)
}

func TestQuery_FirstFetchError(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	boom := errors.New("boom")

	_, err := c.Query(context.Background(), NewKey("users", nil), func(context.Context) (any, error) {
		return nil, boom
	}, Options{})
	assert.ErrorIs(t, err, boom)
}

func TestFetch_Typed(t *testing.T) {
	c, _ := newTestClient(t, Config{})

	got, err := Fetch(context.Background(), c, NewKey("asset", "x"), func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestInvalidate_MarksResourceStale(t *testing.T) {
	c, _ := newTestClient(t, Config{StaleTime: time.Hour})
	fetch, calls := counter()
	ctx := context.Background()
	page1 := NewKey("assets", 1)
	page2 := NewKey("assets", 2)
	other := NewKey("users", nil)

	for _, k := range []Key{page1, page2, other} {
		_, err := c.Query(ctx, k, fetch, Options{})
		require.NoError(t, err)
	}

	c.Invalidate("assets")

	for _, k := range []Key{page1, page2} {
		got, ok := c.Peek(k)
		require.True(t, ok)
		assert.True(t, got.Stale, k.String())
	}
	got, _ := c.Peek(other)
	assert.False(t, got.Stale)
	assert.EqualValues(t, 3, calls.Load(), "unobserved keys are not refetched eagerly")
}

func TestObserve_ReceivesRefetchAfterInvalidate(t *testing.T) {
	c, _ := newTestClient(t, Config{StaleTime: time.Hour})
	fetch, _ := counter()
	key := NewKey("recentActivity", 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := c.Observe(ctx, key, fetch, Options{})

	first := <-updates
	assert.Equal(t, 1, first.Data)

	c.InvalidateKey(key)
	select {
	case next := <-updates:
		assert.Equal(t, 2, next.Data)
		assert.False(t, next.Stale)
	case <-time.After(time.Second):
		t.Fatal("no update after invalidation")
	}
}

func TestObserve_ClosesWhenContextEnds(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	fetch, _ := counter()
	key := NewKey("comments", "a1")

	ctx, cancel := context.WithCancel(context.Background())
	updates := c.Observe(ctx, key, fetch, Options{})
	<-updates
	cancel()

	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	c.InvalidateKey(key)
	_, err := c.Query(context.Background(), key, fetch, Options{})
	require.NoError(t, err)
}

func TestClient_BoundedEntries(t *testing.T) {
	c, _ := newTestClient(t, Config{MaxEntries: 2})
	fetch, _ := counter()
	for i := 0; i < 5; i++ {
		_, err := c.Query(context.Background(), NewKey("asset", i), fetch, Options{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestKey_String(t *testing.T) {
	type params struct {
		Page   int
		Search string
	}
	assert.Equal(t, NewKey("assets", params{1, "logo"}).String(), NewKey("assets", params{1, "logo"}).String())
	assert.NotEqual(t, NewKey("assets", params{1, "logo"}).String(), NewKey("assets", params{2, "logo"}).String())
	assert.Equal(t, "users", NewKey("users", nil).String())
}

func TestMutation(t *testing.T) {
	c, _ := newTestClient(t, Config{StaleTime: time.Hour})
	fetch, _ := counter()
	key := NewKey("users", nil)
	_, err := c.Query(context.Background(), key, fetch, Options{})
	require.NoError(t, err)

	var failures atomic.Int32
	m := NewMutation(func(_ context.Context, id int64) (string, error) {
		if id < 0 {
			return "", errors.New("bad id")
		}
		return "deleted", nil
	}, MutationOptions[int64, string]{
		OnSuccess: func(string, int64) { c.Invalidate("users") },
		OnError:   func(error, int64) { failures.Add(1) },
	})

	res, err := m.MutateAsync(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "deleted", res)
	got, _ := c.Peek(key)
	assert.True(t, got.Stale)

	m.Mutate(context.Background(), -1)
	m.Wait()
	assert.EqualValues(t, 1, failures.Load())
	assert.False(t, m.IsLoading())
}

func TestMutation_IsLoading(t *testing.T) {
	release := make(chan struct{})
	m := NewMutation(func(context.Context, struct{}) (struct{}, error) {
		<-release
		return struct{}{}, nil
	}, MutationOptions[struct{}, struct{}]{})

	m.Mutate(context.Background(), struct{}{})
	assert.True(t, m.IsLoading())
	close(release)
	m.Wait()
	assert.False(t, m.IsLoading())
}

// versioned returns a fetcher reporting the current server version. The
// call numbered block waits on release before returning.
func versioned(version *atomic.Int32, block int32, started, release chan struct{}) (Fetcher, *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (any, error) {
		n := calls.Add(1)
		v := int(version.Load())
		if n == block {
			close(started)
			<-release
		}
		return v, nil
	}, &calls
}

func TestInvalidate_DuringFetchStoresStaleResult(t *testing.T) {
	c, _ := newTestClient(t, Config{StaleTime: time.Hour})
	var version atomic.Int32
	version.Store(1)
	started, release := make(chan struct{}), make(chan struct{})
	fetch, calls := versioned(&version, 1, started, release)
	key := NewKey("assets", nil)
	ctx := context.Background()

	done := make(chan Result, 1)
	go func() {
		res, _ := c.Query(ctx, key, fetch, Options{})
		done <- res
	}()

	<-started
	version.Store(2)
	c.Invalidate("assets")
	close(release)

	res := <-done
	assert.Equal(t, 1, res.Data)
	assert.True(t, res.Stale, "a result fetched before the write must not count as fresh")

	res, err := c.Query(ctx, key, fetch, Options{})
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Eventually(t, func() bool {
		got, ok := c.Peek(key)
		return ok && got.Data == 2 && !got.Stale
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, calls.Load())
}

func TestInvalidate_ObservedKeyDoesNotJoinOlderFetch(t *testing.T) {
	c, _ := newTestClient(t, Config{StaleTime: time.Hour})
	var version atomic.Int32
	version.Store(1)
	started, release := make(chan struct{}), make(chan struct{})
	fetch, calls := versioned(&version, 2, started, release)
	key := NewKey("recentActivity", 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := c.Observe(ctx, key, fetch, Options{})
	first := <-updates
	require.Equal(t, 1, first.Data)

	c.InvalidateKey(key)
	<-started
	version.Store(2)
	c.InvalidateKey(key)

	select {
	case next := <-updates:
		assert.Equal(t, 2, next.Data)
	case <-time.After(time.Second):
		t.Fatal("no refetch after the second invalidation")
	}

	close(release)
	assert.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	got, ok := c.Peek(key)
	require.True(t, ok)
	assert.Equal(t, 2, got.Data, "the older fetch must not overwrite newer data")
}

func TestInvalidate_RefetchesObservedKeyAfterCollection(t *testing.T) {
	c, _ := newTestClient(t, Config{StaleTime: time.Hour, GCTime: 50 * time.Millisecond})
	fetch, calls := counter()
	key := NewKey("recentActivity", 20)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := c.Observe(ctx, key, fetch, Options{})
	first := <-updates
	require.Equal(t, 1, first.Data)

	time.Sleep(150 * time.Millisecond)
	_, cached := c.Peek(key)
	require.False(t, cached)

	c.Invalidate("recentActivity")
	select {
	case next := <-updates:
		assert.Equal(t, 2, next.Data)
	case <-time.After(time.Second):
		t.Fatal("observer not refreshed after its entry was collected")
	}
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetch_TypeMismatch(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	fetch, _ := counter()
	key := NewKey("asset", "mixed")
	_, err := c.Query(context.Background(), key, fetch, Options{})
	require.NoError(t, err)

	_, err = Fetch(context.Background(), c, key, func(context.Context) (string, error) {
		return "x", nil
	}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want string")
}
