package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/gokuthong/ShelfLife-DAM/internal/api"
	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/config"
	"github.com/gokuthong/ShelfLife-DAM/internal/log"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/query"
	"github.com/gokuthong/ShelfLife-DAM/internal/session"
	"github.com/gokuthong/ShelfLife-DAM/internal/storage"
	"github.com/gokuthong/ShelfLife-DAM/internal/store"
)

var errNotPermitted = errors.New("access denied")

// app is the wiring shared by every command.
type app struct {
	cfg     *config.AppConfig
	log     zerolog.Logger
	out     io.Writer
	errOut  io.Writer
	storage storage.Storage
	tokens  *session.Tokens
	api     *api.Services
	store   *store.Store
	queries *query.Queries
	cache   *query.Client
}

func newApp(ctx context.Context, configFile string, out, errOut io.Writer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	logger := log.NewWithWriter(errOut, cfg.Environment, cfg.Logging.Level)

	kv, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	tokens := session.NewTokens(kv)

	// There is no router here: the login screen is the login command.
	nav := apiclient.NavigatorFunc(func(path string) {
		fmt.Fprintf(errOut, "Session expired. Run `shelflife login` to sign in again (%s).\n", path)
	})
	client, err := apiclient.New(apiclient.OptionsFromConfig(cfg.API, tokens, nav, logger))
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	services := api.New(client)

	st := store.New(services, tokens, kv, logger)
	if err := st.Initialize(ctx); err != nil {
		logger.Warn().Err(err).Msg("restore ui preferences")
	}

	cache := query.NewClient(query.ConfigFrom(cfg.Cache, logger))

	return &app{
		cfg:     cfg,
		log:     logger,
		out:     out,
		errOut:  errOut,
		storage: kv,
		tokens:  tokens,
		api:     services,
		store:   st,
		queries: query.NewQueries(cache, services),
		cache:   cache,
	}, nil
}

func (a *app) Close() error {
	a.cache.Close()
	return a.storage.Close()
}

// currentUser restores the session and returns the signed-in user.
func (a *app) currentUser(ctx context.Context) (models.User, error) {
	if err := a.store.FetchCurrentUser(ctx); err != nil {
		if errors.Is(err, store.ErrNoToken) {
			return models.User{}, errors.New("not signed in, run `shelflife login`")
		}
		return models.User{}, err
	}
	user := a.store.State().Auth.User
	if user == nil {
		return models.User{}, errors.New("not signed in")
	}
	return *user, nil
}

// require fails early when the signed-in user lacks a permission. The
// server enforces the same rules.
func (a *app) require(ctx context.Context, allowed func(models.User) bool) (models.User, error) {
	user, err := a.currentUser(ctx)
	if err != nil {
		return user, err
	}
	if !allowed(user) {
		return user, errNotPermitted
	}
	return user, nil
}
