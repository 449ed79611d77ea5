// Package query is a keyed cache of server data with stale-while-revalidate
// reads, in-flight de-duplication and explicit invalidation.
package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gokuthong/ShelfLife-DAM/internal/config"
)

const (
	DefaultStaleTime  = 60 * time.Second
	DefaultGCTime     = 5 * time.Minute
	DefaultMaxEntries = 500
)

var ErrClosed = errors.New("query client closed")

type Fetcher func(ctx context.Context) (any, error)

type Options struct {
	// StaleTime is how long a result is served without refetching. Zero
	// uses the client default; a negative value is always stale.
	StaleTime time.Duration
}

type Result struct {
	Data      any
	Err       error
	UpdatedAt time.Time
	// Stale is set when Data is past its stale time or was invalidated.
	Stale bool
}

type entry struct {
	key         Key
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	invalidated bool
	fetch       Fetcher
	// seq is the flight that produced data; an older flight never
	// overwrites a newer one.
	seq uint64
}

// flight is one fetch for a key. Invalidation marks the running flight so
// its result lands stale and later callers start a new one.
type flight struct {
	key         Key
	seq         uint64
	invalidated bool
}

func (f *flight) groupKey(id string) string {
	return id + "#" + strconv.FormatUint(f.seq, 10)
}

func (e *entry) result(staleTime time.Duration, now time.Time) Result {
	return Result{
		Data:      e.data,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.stale(staleTime, now),
	}
}

func (e *entry) stale(staleTime time.Duration, now time.Time) bool {
	return e.invalidated || staleTime < 0 || now.Sub(e.updatedAt) >= staleTime
}

type Config struct {
	StaleTime  time.Duration
	GCTime     time.Duration
	MaxEntries int
	Logger     zerolog.Logger
}

func ConfigFrom(cfg config.CacheConfig, logger zerolog.Logger) Config {
	return Config{
		StaleTime:  cfg.StaleTime,
		GCTime:     cfg.GCTime,
		MaxEntries: cfg.MaxEntries,
		Logger:     logger,
	}
}

type Client struct {
	staleTime time.Duration
	log       zerolog.Logger
	now       func() time.Time

	mu        sync.Mutex
	cache     *expirable.LRU[string, *entry]
	observers map[string]map[*observer]struct{}
	flights   map[string]*flight
	seq       uint64

	group singleflight.Group

	// base bounds background refetches; Close cancels it.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewClient(cfg Config) *Client {
	if cfg.StaleTime == 0 {
		cfg.StaleTime = DefaultStaleTime
	}
	if cfg.GCTime <= 0 {
		cfg.GCTime = DefaultGCTime
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}

	base, cancel := context.WithCancel(context.Background())
	return &Client{
		staleTime: cfg.StaleTime,
		log:       cfg.Logger.With().Str("component", "query").Logger(),
		now:       time.Now,
		cache:     expirable.NewLRU[string, *entry](cfg.MaxEntries, nil, cfg.GCTime),
		observers: make(map[string]map[*observer]struct{}),
		flights:   make(map[string]*flight),
		base:      base,
		cancel:    cancel,
	}
}

// Close stops background refetches and waits for them to return.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Client) staleFor(opts Options) time.Duration {
	if opts.StaleTime == 0 {
		return c.staleTime
	}
	return opts.StaleTime
}

// Query returns the data for key. A fresh entry is served from memory. A
// stale entry with data is served at once and refetched in the background.
// Otherwise the caller waits for the fetch, shared with any other caller
// asking for the same key.
func (c *Client) Query(ctx context.Context, key Key, fetch Fetcher, opts Options) (Result, error) {
	staleTime := c.staleFor(opts)
	id := key.String()

	c.mu.Lock()
	e, ok := c.cache.Get(id)
	c.mu.Unlock()

	if ok && e.hasData {
		now := c.now()
		if !e.stale(staleTime, now) {
			cacheLookups.WithLabelValues(key.Resource, "hit").Inc()
			return e.result(staleTime, now), nil
		}
		cacheLookups.WithLabelValues(key.Resource, "stale").Inc()
		c.revalidate(key, fetch)
		return e.result(staleTime, now), nil
	}

	cacheLookups.WithLabelValues(key.Resource, "miss").Inc()
	e, err := c.fetch(ctx, key, fetch)
	if err != nil {
		return Result{Err: err}, err
	}
	return e.result(staleTime, c.now()), e.err
}

// Fetch is Query with a typed result.
func Fetch[T any](ctx context.Context, c *Client, key Key, fetch func(context.Context) (T, error), opts Options) (T, error) {
	var zero T
	res, err := c.Query(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts)
	if err != nil {
		return zero, err
	}
	if res.Data == nil {
		return zero, nil
	}
	data, ok := res.Data.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached %T, want %T", key, res.Data, zero)
	}
	return data, nil
}

// fetch runs the fetcher once per key at a time. The shared call is
// detached from ctx so one caller giving up does not fail the others. A
// flight that was invalidated is not joined: the caller starts a new one.
func (c *Client) fetch(ctx context.Context, key Key, fetch Fetcher) (*entry, error) {
	if c.base.Err() != nil {
		return nil, ErrClosed
	}
	id := key.String()

	c.mu.Lock()
	f := c.flights[id]
	if f == nil || f.invalidated {
		c.seq++
		f = &flight{key: key, seq: c.seq}
		c.flights[id] = f
	}
	c.mu.Unlock()

	ch := c.group.DoChan(f.groupKey(id), func() (any, error) {
		fetchCtx, cancel := context.WithCancel(c.base)
		defer cancel()
		return c.load(fetchCtx, id, f, fetch), nil
	})

	select {
	case res := <-ch:
		return res.Val.(*entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load calls the fetcher and stores the outcome. A failed refetch keeps
// the previous data and records the error next to it. A result whose flight
// was invalidated meanwhile is stored stale.
func (c *Client) load(ctx context.Context, id string, f *flight, fetch Fetcher) *entry {
	c.mu.Lock()
	if c.flights[id] == nil {
		c.flights[id] = f
	}
	c.mu.Unlock()

	data, err := fetch(ctx)

	result := "ok"
	if err != nil {
		result = "error"
	}
	fetchesTotal.WithLabelValues(f.key.Resource, result).Inc()

	c.mu.Lock()
	if c.flights[id] == f {
		delete(c.flights, id)
	}
	prev, hasPrev := c.cache.Peek(id)
	if hasPrev && prev.seq > f.seq {
		c.mu.Unlock()
		return prev
	}
	next := &entry{key: f.key, fetch: fetch, seq: f.seq, updatedAt: c.now(), invalidated: f.invalidated}
	if hasPrev {
		next.data, next.hasData = prev.data, prev.hasData
		if err != nil {
			next.updatedAt = prev.updatedAt
			next.invalidated = next.invalidated || prev.invalidated
		}
	}
	if err != nil {
		next.err = err
		c.log.Debug().Err(err).Str("key", id).Msg("query fetch failed")
	} else {
		next.data, next.hasData = data, true
	}
	c.cache.Add(id, next)
	c.notifyLocked(id, next)
	c.mu.Unlock()

	return next
}

func (c *Client) revalidate(key Key, fetch Fetcher) {
	if c.base.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.fetch(c.base, key, fetch); err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, context.Canceled) {
			c.log.Warn().Err(err).Str("key", key.String()).Msg("background refetch failed")
		}
	}()
}

// Invalidate marks every entry of resource stale, including results still
// in flight, and refetches the keys that are being observed.
func (c *Client) Invalidate(resource string) {
	c.invalidate(func(k Key) bool { return k.Resource == resource })
}

// InvalidateKey marks one entry stale.
func (c *Client) InvalidateKey(key Key) {
	id := key.String()
	c.invalidate(func(k Key) bool { return k.String() == id })
}

func (c *Client) invalidate(match func(Key) bool) {
	type refetch struct {
		key   Key
		fetch Fetcher
	}
	pending := make(map[string]refetch)

	c.mu.Lock()
	for _, id := range c.cache.Keys() {
		e, ok := c.cache.Peek(id)
		if !ok || !match(e.key) {
			continue
		}
		marked := *e
		marked.invalidated = true
		c.cache.Add(id, &marked)
	}
	for _, f := range c.flights {
		if match(f.key) {
			f.invalidated = true
		}
	}
	// Observed keys refetch even when their entry was already collected.
	for id, set := range c.observers {
		for o := range set {
			if match(o.key) {
				pending[id] = refetch{key: o.key, fetch: o.fetch}
			}
			break
		}
	}
	c.mu.Unlock()

	for _, r := range pending {
		c.revalidate(r.key, r.fetch)
	}
}

// Peek returns the cached entry without fetching.
func (c *Client) Peek(key Key) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache.Peek(key.String())
	if !ok {
		return Result{}, false
	}
	return e.result(c.staleTime, c.now()), true
}

// Len reports the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
