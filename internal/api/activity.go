package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

const (
	pathLogs     = "/activity/logs/"
	pathRecent   = "/activity/recent/"
	pathComments = "/activity/comments/"
)

type Activity struct {
	c *apiclient.Client
}

func (a *Activity) Logs(ctx context.Context, params models.ActivityListParams) (*models.Page[models.ActivityLogEntry], error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Action != "" {
		q.Set("action", string(params.Action))
	}
	if params.UserID > 0 {
		q.Set("user", strconv.FormatInt(params.UserID, 10))
	}
	if params.AssetID != "" {
		q.Set("asset", params.AssetID)
	}

	var out listBody[models.ActivityLogEntry]
	if err := a.c.Get(ctx, pathLogs, q, &out); err != nil {
		return nil, err
	}
	return &out.page, nil
}

func (a *Activity) Recent(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out listBody[models.ActivityLogEntry]
	if err := a.c.Get(ctx, pathRecent, q, &out); err != nil {
		return nil, err
	}
	return out.page.Results, nil
}

func (a *Activity) Comments(ctx context.Context, assetID string) ([]models.Comment, error) {
	var out listBody[models.Comment]
	if err := a.c.Get(ctx, pathComments, url.Values{"asset": {assetID}}, &out); err != nil {
		return nil, err
	}
	return out.page.Results, nil
}

func (a *Activity) CreateComment(ctx context.Context, assetID, content string) (*models.Comment, error) {
	body := map[string]string{"asset": assetID, "content": content}
	var out models.Comment
	if err := a.c.Post(ctx, pathComments, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Activity) DeleteComment(ctx context.Context, commentID string) error {
	return a.c.Delete(ctx, itemPath(pathComments, commentID))
}
