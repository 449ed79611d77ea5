package query

import (
	"context"
	"time"

	"github.com/gokuthong/ShelfLife-DAM/internal/api"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

// Resource names used as the first part of every key.
const (
	ResourceAssets         = "assets"
	ResourceAsset          = "asset"
	ResourceComments       = "comments"
	ResourceActivityLogs   = "activityLogs"
	ResourceRecentActivity = "recentActivity"
	ResourceUsers          = "users"
)

// ActivityStaleTime applies to the activity feeds, which change more often
// than anything else.
const ActivityStaleTime = 30 * time.Second

// Queries binds the cache to the API services.
type Queries struct {
	cache *Client
	api   *api.Services
}

func NewQueries(cache *Client, services *api.Services) *Queries {
	return &Queries{cache: cache, api: services}
}

func (q *Queries) Cache() *Client {
	return q.cache
}

func AssetsKey(params models.AssetListParams) Key {
	return NewKey(ResourceAssets, params)
}

func AssetKey(id string) Key {
	return NewKey(ResourceAsset, id)
}

func CommentsKey(assetID string) Key {
	return NewKey(ResourceComments, assetID)
}

func (q *Queries) Assets(ctx context.Context, params models.AssetListParams) (*models.Page[models.Asset], error) {
	return Fetch(ctx, q.cache, AssetsKey(params), func(ctx context.Context) (*models.Page[models.Asset], error) {
		return q.api.Assets.List(ctx, params)
	}, Options{})
}

func (q *Queries) Asset(ctx context.Context, id string) (*models.Asset, error) {
	return Fetch(ctx, q.cache, AssetKey(id), func(ctx context.Context) (*models.Asset, error) {
		return q.api.Assets.Get(ctx, id)
	}, Options{})
}

func (q *Queries) Comments(ctx context.Context, assetID string) ([]models.Comment, error) {
	return Fetch(ctx, q.cache, CommentsKey(assetID), func(ctx context.Context) ([]models.Comment, error) {
		return q.api.Activity.Comments(ctx, assetID)
	}, Options{})
}

func (q *Queries) ActivityLogs(ctx context.Context, params models.ActivityListParams) (*models.Page[models.ActivityLogEntry], error) {
	return Fetch(ctx, q.cache, NewKey(ResourceActivityLogs, params), func(ctx context.Context) (*models.Page[models.ActivityLogEntry], error) {
		return q.api.Activity.Logs(ctx, params)
	}, Options{StaleTime: ActivityStaleTime})
}

// RecentActivityFetcher is exposed for observers of the recent feed.
func (q *Queries) RecentActivityFetcher(limit int) (Key, Fetcher) {
	return NewKey(ResourceRecentActivity, limit), func(ctx context.Context) (any, error) {
		return q.api.Activity.Recent(ctx, limit)
	}
}

func (q *Queries) RecentActivity(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	key, fetch := q.RecentActivityFetcher(limit)
	res, err := q.cache.Query(ctx, key, fetch, Options{StaleTime: ActivityStaleTime})
	if err != nil {
		return nil, err
	}
	entries, _ := res.Data.([]models.ActivityLogEntry)
	return entries, nil
}

func (q *Queries) Users(ctx context.Context) ([]models.User, error) {
	return Fetch(ctx, q.cache, NewKey(ResourceUsers, nil), func(ctx context.Context) ([]models.User, error) {
		return q.api.Users.List(ctx)
	}, Options{})
}

type AssetUpdate struct {
	ID    string
	Patch models.AssetPatch
}

type UserUpdate struct {
	ID     int64
	Update models.UserUpdate
}

type NewComment struct {
	AssetID string
	Content string
}

func (q *Queries) UploadAsset() *Mutation[api.Upload, *models.Asset] {
	return NewMutation(q.api.Assets.Create, MutationOptions[api.Upload, *models.Asset]{
		OnSuccess: func(*models.Asset, api.Upload) {
			q.cache.Invalidate(ResourceAssets)
			q.cache.Invalidate(ResourceRecentActivity)
		},
	})
}

func (q *Queries) UpdateAsset() *Mutation[AssetUpdate, *models.Asset] {
	update := func(ctx context.Context, v AssetUpdate) (*models.Asset, error) {
		return q.api.Assets.Update(ctx, v.ID, v.Patch)
	}
	return NewMutation(update, MutationOptions[AssetUpdate, *models.Asset]{
		OnSuccess: func(_ *models.Asset, v AssetUpdate) {
			q.cache.Invalidate(ResourceAssets)
			q.cache.InvalidateKey(AssetKey(v.ID))
		},
	})
}

func (q *Queries) DeleteAsset() *Mutation[string, struct{}] {
	del := func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, q.api.Assets.Delete(ctx, id)
	}
	return NewMutation(del, MutationOptions[string, struct{}]{
		OnSuccess: func(_ struct{}, id string) {
			q.cache.Invalidate(ResourceAssets)
			q.cache.InvalidateKey(AssetKey(id))
		},
	})
}

func (q *Queries) CreateComment() *Mutation[NewComment, *models.Comment] {
	create := func(ctx context.Context, v NewComment) (*models.Comment, error) {
		return q.api.Activity.CreateComment(ctx, v.AssetID, v.Content)
	}
	return NewMutation(create, MutationOptions[NewComment, *models.Comment]{
		OnSuccess: func(_ *models.Comment, v NewComment) {
			q.cache.InvalidateKey(CommentsKey(v.AssetID))
		},
	})
}

// DeleteComment needs the asset id only to invalidate its comment list.
func (q *Queries) DeleteComment(assetID string) *Mutation[string, struct{}] {
	del := func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, q.api.Activity.DeleteComment(ctx, id)
	}
	return NewMutation(del, MutationOptions[string, struct{}]{
		OnSuccess: func(struct{}, string) {
			q.cache.InvalidateKey(CommentsKey(assetID))
		},
	})
}

func (q *Queries) UpdateUser() *Mutation[UserUpdate, *models.User] {
	update := func(ctx context.Context, v UserUpdate) (*models.User, error) {
		return q.api.Users.Update(ctx, v.ID, v.Update)
	}
	return NewMutation(update, MutationOptions[UserUpdate, *models.User]{
		OnSuccess: func(*models.User, UserUpdate) {
			q.cache.Invalidate(ResourceUsers)
		},
	})
}

func (q *Queries) DeleteUser() *Mutation[int64, struct{}] {
	del := func(ctx context.Context, id int64) (struct{}, error) {
		return struct{}{}, q.api.Users.Delete(ctx, id)
	}
	return NewMutation(del, MutationOptions[int64, struct{}]{
		OnSuccess: func(struct{}, int64) {
			q.cache.Invalidate(ResourceUsers)
		},
	})
}
