package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokuthong/ShelfLife-DAM/internal/storage"
)

func TestTokens_SaveAndClear(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	tokens := NewTokens(mem)

	require.NoError(t, tokens.Save(ctx, "a1", "r1"))

	access, err := tokens.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", access)

	legacy, ok, err := mem.Get(ctx, storage.KeyLegacyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a1", legacy)

	require.NoError(t, tokens.Clear(ctx))

	access, err = tokens.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, access)
	refresh, err := tokens.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, refresh)
}

func TestTokens_SaveRequiresPair(t *testing.T) {
	tokens := NewTokens(storage.NewMemory())
	assert.Error(t, tokens.Save(context.Background(), "a1", ""))
	assert.Error(t, tokens.Save(context.Background(), "", "r1"))
}

func TestTokens_SetAccessWithoutRefresh(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	tokens := NewTokens(mem)

	err := tokens.SetAccess(ctx, "orphan")
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	_, ok, err := mem.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok, "a partial session must never be persisted")
}

func TestTokens_Rotate(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokens(storage.NewMemory())
	require.NoError(t, tokens.Save(ctx, "a1", "r1"))

	require.NoError(t, tokens.Rotate(ctx, "a2", ""))
	refresh, _ := tokens.RefreshToken(ctx)
	assert.Equal(t, "r1", refresh)

	require.NoError(t, tokens.Rotate(ctx, "a3", "r2"))
	access, _ := tokens.AccessToken(ctx)
	refresh, _ = tokens.RefreshToken(ctx)
	assert.Equal(t, "a3", access)
	assert.Equal(t, "r2", refresh)
}
