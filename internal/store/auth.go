package store

import (
	"context"
	"errors"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

var ErrNoToken = errors.New("No token found")

// LoginUser signs in and stores the returned token pair.
func (s *Store) LoginUser(ctx context.Context, creds models.Credentials) error {
	return s.startSession(ctx, "signed in", func() (*models.Session, error) {
		return s.api.Auth.Login(ctx, creds)
	})
}

// RegisterUser creates an account and signs it in.
func (s *Store) RegisterUser(ctx context.Context, reg models.Registration) error {
	return s.startSession(ctx, "registered", func() (*models.Session, error) {
		return s.api.Auth.Register(ctx, reg)
	})
}

func (s *Store) startSession(ctx context.Context, event string, call func() (*models.Session, error)) error {
	s.Dispatch(AuthPending{})

	sess, err := call()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil {
		err = s.tokens.Save(ctx, sess.AccessToken, sess.RefreshToken)
	}
	if err != nil {
		s.Dispatch(settle(ctx, AuthAborted{}, AuthRejected{Reason: apiclient.Message(err)}))
		return err
	}

	s.Dispatch(AuthFulfilled{User: sess.User, Token: sess.AccessToken})
	s.log.Info().Str("username", sess.User.Username).Msg(event)
	return nil
}

// FetchCurrentUser restores the session from the stored token. Without a
// token it rejects at once and makes no request. A rejected check ends the
// session, except when the server could not be reached.
func (s *Store) FetchCurrentUser(ctx context.Context) error {
	s.Dispatch(AuthPending{})

	token, err := s.tokens.AccessToken(ctx)
	if err == nil && token == "" {
		err = ErrNoToken
	}
	if err != nil {
		s.Dispatch(AuthRejected{Reason: err.Error(), EndSession: true})
		return err
	}

	user, err := s.api.Auth.Profile(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.Dispatch(AuthAborted{})
			return err
		}
		offline := errors.Is(err, apiclient.ErrNetwork)
		if !offline {
			if clearErr := s.tokens.Clear(context.WithoutCancel(ctx)); clearErr != nil {
				s.log.Error().Err(clearErr).Msg("clear tokens")
			}
		}
		s.Dispatch(AuthRejected{Reason: apiclient.Message(err), EndSession: !offline})
		return err
	}

	// The client may have refreshed during the call.
	if current, tokErr := s.tokens.AccessToken(ctx); tokErr == nil && current != "" {
		token = current
	}
	s.Dispatch(settle(ctx, AuthAborted{}, AuthFulfilled{User: *user, Token: token}))
	return nil
}

// Logout drops the stored tokens and resets the auth slice.
func (s *Store) Logout(ctx context.Context) error {
	err := s.tokens.Clear(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("clear tokens")
	}
	s.Dispatch(Logout{})
	return err
}

func (s *Store) ClearAuthError() {
	s.Dispatch(ClearAuthError{})
}
