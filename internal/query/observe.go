package query

import (
	"context"
	"time"
)

type observer struct {
	key       Key
	fetch     Fetcher
	ch        chan Result
	staleTime time.Duration
	ctx       context.Context
}

// deliver keeps only the newest result for a slow reader. Callers hold c.mu.
func (o *observer) deliver(r Result) {
	if o.ctx.Err() != nil {
		return
	}
	select {
	case o.ch <- r:
		return
	default:
	}
	select {
	case <-o.ch:
	default:
	}
	select {
	case o.ch <- r:
	default:
	}
}

// Observe streams results for key until ctx ends: the current value first,
// then every refetch, including those triggered by invalidation. The
// channel is closed once ctx is done and nothing is sent after that.
func (c *Client) Observe(ctx context.Context, key Key, fetch Fetcher, opts Options) <-chan Result {
	id := key.String()
	o := &observer{
		key:       key,
		fetch:     fetch,
		ch:        make(chan Result, 1),
		staleTime: c.staleFor(opts),
		ctx:       ctx,
	}

	c.mu.Lock()
	if c.observers[id] == nil {
		c.observers[id] = make(map[*observer]struct{})
	}
	c.observers[id][o] = struct{}{}
	cached, ok := c.cache.Get(id)
	if ok && cached.hasData {
		o.deliver(cached.result(o.staleTime, c.now()))
	}
	c.mu.Unlock()

	// A fetch started from here reports through notifyLocked.
	switch {
	case !ok || !cached.hasData:
		cacheLookups.WithLabelValues(key.Resource, "miss").Inc()
		c.revalidate(key, fetch)
	case cached.stale(o.staleTime, c.now()):
		cacheLookups.WithLabelValues(key.Resource, "stale").Inc()
		c.revalidate(key, fetch)
	default:
		cacheLookups.WithLabelValues(key.Resource, "hit").Inc()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		select {
		case <-ctx.Done():
		case <-c.base.Done():
		}

		c.mu.Lock()
		delete(c.observers[id], o)
		if len(c.observers[id]) == 0 {
			delete(c.observers, id)
		}
		select {
		case <-o.ch:
		default:
		}
		close(o.ch)
		c.mu.Unlock()
	}()

	return o.ch
}

func (c *Client) notifyLocked(id string, e *entry) {
	now := c.now()
	for o := range c.observers[id] {
		o.deliver(e.result(o.staleTime, now))
	}
}
