package api

import (
	"context"
	"strconv"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

const pathUsers = "/auth/users/"

// Users is the admin-only account management surface.
type Users struct {
	c *apiclient.Client
}

func (u *Users) List(ctx context.Context) ([]models.User, error) {
	var out listBody[models.User]
	if err := u.c.Get(ctx, pathUsers, nil, &out); err != nil {
		return nil, err
	}
	return out.page.Results, nil
}

func (u *Users) Get(ctx context.Context, id int64) (*models.User, error) {
	var out models.User
	if err := u.c.Get(ctx, userPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *Users) Update(ctx context.Context, id int64, update models.UserUpdate) (*models.User, error) {
	var out models.User
	if err := u.c.Put(ctx, userPath(id), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *Users) Delete(ctx context.Context, id int64) error {
	return u.c.Delete(ctx, userPath(id))
}

func userPath(id int64) string {
	return itemPath(pathUsers, strconv.FormatInt(id, 10))
}
