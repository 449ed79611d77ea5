package storage

import (
	"context"
	"errors"
)

// Keys of the durable local store.
const (
	KeyAccessToken     = "accessToken"
	KeyRefreshToken    = "refreshToken"
	KeyLegacyToken     = "token"
	KeyColorMode       = "colorMode"
	KeyChakraColorMode = "chakra-ui-color-mode"
	KeySidebarOpen     = "sidebarOpen"
)

var ErrClosed = errors.New("storage closed")

// Storage is a durable string key/value store. Each key has a single writer;
// there is no cross-process change notification.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}
