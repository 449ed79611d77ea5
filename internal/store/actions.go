package store

import "github.com/gokuthong/ShelfLife-DAM/internal/models"

// Action is anything the root reducer understands. The set is closed.
type Action interface {
	isAction()
}

type action struct{}

func (action) isAction() {}

// Auth.

type AuthPending struct{ action }

type AuthFulfilled struct {
	action
	User  models.User
	Token string
}

type AuthRejected struct {
	action
	Reason string
	// EndSession drops user and token as well, for a failed session check.
	EndSession bool
}

// AuthAborted settles a request whose caller went away.
type AuthAborted struct{ action }

type Logout struct{ action }

type ClearAuthError struct{ action }

// Assets.

type AssetsPending struct{ action }

type AssetsFetched struct {
	action
	Page models.Page[models.Asset]
}

type AssetFetched struct {
	action
	Asset models.Asset
}

type AssetDeleted struct {
	action
	AssetID string
}

type AssetsRejected struct {
	action
	Reason string
}

type AssetsAborted struct{ action }

type SetSearchQuery struct {
	action
	Query string
}

type SetFilters struct {
	action
	Filters models.AssetFilters
}

type SetCurrentPage struct {
	action
	Page int
}

type ClearCurrentAsset struct{ action }

type ClearAssetsError struct{ action }

// UI.

type SetColorMode struct {
	action
	Mode models.ColorMode
}

type ToggleSidebar struct{ action }

type SetSidebarOpen struct {
	action
	Open bool
}

type AddNotification struct {
	action
	Notification models.Notification
}

type RemoveNotification struct {
	action
	ID string
}

type ClearNotifications struct{ action }
