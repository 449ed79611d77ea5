package api

import (
	"context"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

const (
	pathLogin          = "/auth/login/"
	pathRegister       = "/auth/register/"
	pathProfile        = "/auth/profile/"
	pathChangePassword = "/auth/profile/change-password/"
)

type Auth struct {
	c *apiclient.Client
}

func (a *Auth) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	var out models.Session
	if err := a.c.Post(ctx, pathLogin, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Auth) Register(ctx context.Context, reg models.Registration) (*models.Session, error) {
	var out models.Session
	if err := a.c.Post(ctx, pathRegister, reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the user the stored access token belongs to.
func (a *Auth) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := a.c.Get(ctx, pathProfile, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Auth) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	var out models.User
	if err := a.c.Put(ctx, pathProfile, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Auth) ChangePassword(ctx context.Context, change models.PasswordChange) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := a.c.Post(ctx, pathChangePassword, change, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
