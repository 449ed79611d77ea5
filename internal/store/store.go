// Package store holds the client's application state: the signed-in user,
// the current asset listing and UI preferences. State changes only through
// Dispatch; async operations ("thunks") dispatch a pending action, call the
// API and then dispatch the outcome.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokuthong/ShelfLife-DAM/internal/api"
	"github.com/gokuthong/ShelfLife-DAM/internal/session"
	"github.com/gokuthong/ShelfLife-DAM/internal/storage"
)

type Store struct {
	api     *api.Services
	tokens  *session.Tokens
	storage storage.Storage
	log     zerolog.Logger

	// dispatchMu serializes whole dispatches, so subscribers see states
	// in the order they were produced.
	dispatchMu sync.Mutex

	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]func(State)

	// uiMu orders persisted UI writes with the dispatch that follows them.
	uiMu sync.Mutex
}

func New(services *api.Services, tokens *session.Tokens, store storage.Storage, logger zerolog.Logger) *Store {
	return &Store{
		api:     services,
		tokens:  tokens,
		storage: store,
		log:     logger.With().Str("component", "store").Logger(),
		state:   InitialState(),
		subs:    make(map[int]func(State)),
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a to the state and notifies subscribers with the result.
// Subscribers run on the dispatching goroutine, one dispatch at a time, and
// must not call Dispatch themselves.
func (s *Store) Dispatch(a Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn for every future state change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// settle picks the action that ends a thunk. A cancelled caller gets the
// aborted action so a late result is never applied.
func settle(ctx context.Context, aborted, outcome Action) Action {
	if ctx.Err() != nil {
		return aborted
	}
	return outcome
}
