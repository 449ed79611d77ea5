package query

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokuthong/ShelfLife-DAM/internal/api"
	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/apitest"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/session"
	"github.com/gokuthong/ShelfLife-DAM/internal/storage"
)

func newQueries(t *testing.T) (*Queries, *apitest.Server, models.User) {
	t.Helper()
	srv := apitest.NewServer(t)
	tokens := session.NewTokens(storage.NewMemory())
	client, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Tokens: tokens, Logger: zerolog.Nop()})
	require.NoError(t, err)

	admin := srv.AddUser("admin", "password123", models.UserRoleAdmin)
	access, refresh := srv.IssueSession(admin)
	require.NoError(t, tokens.Save(context.Background(), access, refresh))

	cache := NewClient(Config{StaleTime: time.Hour, Logger: zerolog.Nop()})
	t.Cleanup(cache.Close)
	return NewQueries(cache, api.New(client)), srv, admin
}

func TestQueries_AssetsCachedUntilMutation(t *testing.T) {
	q, srv, admin := newQueries(t)
	srv.AddAsset(admin, models.Asset{Title: "Logo", File: "logo.png"}, nil)
	ctx := context.Background()
	params := models.AssetListParams{Page: 1, PageSize: 20}

	page, err := q.Assets(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)

	_, err = q.Assets(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/assets/assets/"))

	_, err = q.UploadAsset().MutateAsync(ctx, api.Upload{
		FileName: "banner.png",
		Open:     apiclient.OpenBytes([]byte("\x89PNG\r\n\x1a\n")),
	})
	require.NoError(t, err)

	// Invalidated: the stale page comes back first, then the refetch lands.
	_, err = q.Assets(ctx, params)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		res, ok := q.Cache().Peek(AssetsKey(params))
		page, _ := res.Data.(*models.Page[models.Asset])
		return ok && page != nil && page.Count == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueries_DeleteUserInvalidatesUsers(t *testing.T) {
	q, srv, _ := newQueries(t)
	victim := srv.AddUser("temp", "password123", models.UserRoleViewer)
	ctx := context.Background()

	users, err := q.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = q.DeleteUser().MutateAsync(ctx, victim.ID)
	require.NoError(t, err)

	res, ok := q.Cache().Peek(NewKey(ResourceUsers, nil))
	require.True(t, ok)
	assert.True(t, res.Stale)
}

func TestQueries_CommentMutations(t *testing.T) {
	q, srv, admin := newQueries(t)
	asset := srv.AddAsset(admin, models.Asset{Title: "Data sheet", File: "datasheet.pdf"}, nil)
	ctx := context.Background()

	comments, err := q.Comments(ctx, asset.AssetID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	created, err := q.CreateComment().MutateAsync(ctx, NewComment{AssetID: asset.AssetID, Content: "Looks good"})
	require.NoError(t, err)

	res, _ := q.Cache().Peek(CommentsKey(asset.AssetID))
	assert.True(t, res.Stale)

	_, err = q.DeleteComment(asset.AssetID).MutateAsync(ctx, created.CommentID)
	require.NoError(t, err)
}

func TestQueries_RecentActivity(t *testing.T) {
	q, srv, admin := newQueries(t)
	asset := srv.AddAsset(admin, models.Asset{Title: "Logo", File: "logo.png"}, nil)
	ctx := context.Background()

	_, err := q.Asset(ctx, asset.AssetID)
	require.NoError(t, err)

	recent, err := q.RecentActivity(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, models.ActionView, recent[0].Action)
}
