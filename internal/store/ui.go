package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/ksuid"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/storage"
)

// SetColorMode persists mode under both color keys, then applies it. An
// invalid mode is rejected without touching storage.
func (s *Store) SetColorMode(ctx context.Context, mode models.ColorMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid color mode %q", mode)
	}

	s.uiMu.Lock()
	defer s.uiMu.Unlock()
	return s.commitColorMode(ctx, mode)
}

// ToggleColorMode flips between light and dark and returns the new mode.
func (s *Store) ToggleColorMode(ctx context.Context) (models.ColorMode, error) {
	s.uiMu.Lock()
	defer s.uiMu.Unlock()

	next := s.State().UI.ColorMode.Toggle()
	if err := s.commitColorMode(ctx, next); err != nil {
		return s.State().UI.ColorMode, err
	}
	return next, nil
}

func (s *Store) commitColorMode(ctx context.Context, mode models.ColorMode) error {
	for _, key := range []string{storage.KeyColorMode, storage.KeyChakraColorMode} {
		if err := s.storage.Set(ctx, key, string(mode)); err != nil {
			return fmt.Errorf("persist color mode: %w", err)
		}
	}
	s.Dispatch(SetColorMode{Mode: mode})
	return nil
}

// InitializeColorMode applies a saved mode. Missing or unknown values leave
// the default in place.
func (s *Store) InitializeColorMode(ctx context.Context) error {
	saved, ok, err := s.storage.Get(ctx, storage.KeyColorMode)
	if err != nil {
		return fmt.Errorf("read color mode: %w", err)
	}
	if mode := models.ColorMode(saved); ok && mode.Valid() {
		s.Dispatch(SetColorMode{Mode: mode})
	}
	return nil
}

func (s *Store) ToggleSidebar(ctx context.Context) error {
	s.uiMu.Lock()
	defer s.uiMu.Unlock()
	return s.commitSidebar(ctx, !s.State().UI.SidebarOpen)
}

func (s *Store) SetSidebarOpen(ctx context.Context, open bool) error {
	s.uiMu.Lock()
	defer s.uiMu.Unlock()
	return s.commitSidebar(ctx, open)
}

func (s *Store) commitSidebar(ctx context.Context, open bool) error {
	if err := s.storage.Set(ctx, storage.KeySidebarOpen, strconv.FormatBool(open)); err != nil {
		return fmt.Errorf("persist sidebar: %w", err)
	}
	s.Dispatch(SetSidebarOpen{Open: open})
	return nil
}

// Initialize restores the persisted UI preferences.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.InitializeColorMode(ctx); err != nil {
		return err
	}
	saved, ok, err := s.storage.Get(ctx, storage.KeySidebarOpen)
	if err != nil {
		return fmt.Errorf("read sidebar: %w", err)
	}
	if open, parseErr := strconv.ParseBool(saved); ok && parseErr == nil {
		s.Dispatch(SetSidebarOpen{Open: open})
	}
	return nil
}

// AddNotification queues a message and returns its id.
func (s *Store) AddNotification(kind models.NotificationType, message string) string {
	id := ksuid.New().String()
	s.Dispatch(AddNotification{Notification: models.Notification{ID: id, Type: kind, Message: message}})
	return id
}

func (s *Store) RemoveNotification(id string) {
	s.Dispatch(RemoveNotification{ID: id})
}

func (s *Store) ClearNotifications() {
	s.Dispatch(ClearNotifications{})
}
