package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gokuthong/ShelfLife-DAM/internal/storage"
)

var ErrNoRefreshToken = errors.New("no refresh token")

// Tokens is the persisted session. The persisted states are "no tokens" and
// "both tokens"; an access token without a refresh token is never written.
type Tokens struct {
	mu    sync.RWMutex
	store storage.Storage
}

func NewTokens(store storage.Storage) *Tokens {
	return &Tokens{store: store}
}

func (t *Tokens) AccessToken(ctx context.Context) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.get(ctx, storage.KeyAccessToken)
}

func (t *Tokens) RefreshToken(ctx context.Context) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.get(ctx, storage.KeyRefreshToken)
}

// Save stores a fresh token pair. The legacy single-token key mirrors the
// access token for older screens that still read it.
func (t *Tokens) Save(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return fmt.Errorf("save session: both tokens are required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Set(ctx, storage.KeyRefreshToken, refresh); err != nil {
		return err
	}
	if err := t.store.Set(ctx, storage.KeyAccessToken, access); err != nil {
		_ = t.store.Remove(ctx, storage.KeyRefreshToken)
		return err
	}
	return t.store.Set(ctx, storage.KeyLegacyToken, access)
}

// SetAccess replaces the access token after a refresh. It refuses to write
// when no refresh token is stored, which keeps the pair invariant.
func (t *Tokens) SetAccess(ctx context.Context, access string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	refresh, err := t.get(ctx, storage.KeyRefreshToken)
	if err != nil {
		return err
	}
	if refresh == "" {
		return ErrNoRefreshToken
	}
	if err := t.store.Set(ctx, storage.KeyAccessToken, access); err != nil {
		return err
	}
	return t.store.Set(ctx, storage.KeyLegacyToken, access)
}

// Rotate stores a refreshed pair when the server rotates refresh tokens.
func (t *Tokens) Rotate(ctx context.Context, access, refresh string) error {
	if refresh == "" {
		return t.SetAccess(ctx, access)
	}
	return t.Save(ctx, access, refresh)
}

func (t *Tokens) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Remove(ctx, storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyLegacyToken)
}

func (t *Tokens) get(ctx context.Context, key string) (string, error) {
	v, ok, err := t.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}
