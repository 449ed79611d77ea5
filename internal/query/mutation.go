package query

import (
	"context"
	"sync"
	"sync/atomic"
)

type MutationOptions[V, R any] struct {
	OnSuccess func(result R, vars V)
	OnError   func(err error, vars V)
}

// Mutation wraps a write call. Cache invalidation belongs in OnSuccess.
type Mutation[V, R any] struct {
	fn   func(context.Context, V) (R, error)
	opts MutationOptions[V, R]

	running atomic.Int32
	wg      sync.WaitGroup
}

func NewMutation[V, R any](fn func(context.Context, V) (R, error), opts MutationOptions[V, R]) *Mutation[V, R] {
	return &Mutation[V, R]{fn: fn, opts: opts}
}

// MutateAsync runs the mutation and waits for it.
func (m *Mutation[V, R]) MutateAsync(ctx context.Context, vars V) (R, error) {
	m.running.Add(1)
	defer m.running.Add(-1)

	res, err := m.fn(ctx, vars)
	if err != nil {
		if m.opts.OnError != nil {
			m.opts.OnError(err, vars)
		}
		return res, err
	}
	if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(res, vars)
	}
	return res, nil
}

// Mutate runs the mutation in the background; outcomes reach the callbacks.
func (m *Mutation[V, R]) Mutate(ctx context.Context, vars V) {
	m.running.Add(1)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.running.Add(-1)
		_, _ = m.MutateAsync(ctx, vars)
	}()
}

func (m *Mutation[V, R]) IsLoading() bool {
	return m.running.Load() > 0
}

// Wait blocks until every Mutate call has finished.
func (m *Mutation[V, R]) Wait() {
	m.wg.Wait()
}
