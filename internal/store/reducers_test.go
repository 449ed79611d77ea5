package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

func TestReduce_CriteriaResetPage(t *testing.T) {
	s := InitialState()
	s = Reduce(s, SetCurrentPage{Page: 4})
	assert.Equal(t, 4, s.Assets.CurrentPage)

	s = Reduce(s, SetSearchQuery{Query: "logo"})
	assert.Equal(t, 1, s.Assets.CurrentPage)
	assert.Equal(t, "logo", s.Assets.SearchQuery)

	s = Reduce(s, SetCurrentPage{Page: 3})
	s = Reduce(s, SetFilters{Filters: models.AssetFilters{FileType: models.FileTypeImage}})
	assert.Equal(t, 1, s.Assets.CurrentPage)
	assert.Equal(t, models.FileTypeImage, s.Assets.Filters.FileType)
}

func TestReduce_SetCurrentPageIgnoresInvalid(t *testing.T) {
	s := Reduce(InitialState(), SetCurrentPage{Page: 0})
	assert.Equal(t, 1, s.Assets.CurrentPage)
}

func TestReduce_RequestLifecycle(t *testing.T) {
	s := InitialState()
	s = Reduce(s, AssetsFetched{Page: models.Page[models.Asset]{
		Count:   2,
		Results: []models.Asset{{AssetID: "a"}, {AssetID: "b"}},
	}})

	s = Reduce(s, AssetsPending{})
	assert.True(t, s.Assets.IsLoading)
	assert.Empty(t, s.Assets.Error)

	s = Reduce(s, AssetsRejected{Reason: "boom"})
	assert.False(t, s.Assets.IsLoading)
	assert.Equal(t, "boom", s.Assets.Error)
	assert.Len(t, s.Assets.Assets, 2, "rejection keeps prior data")
	assert.Equal(t, 2, s.Assets.TotalCount)

	s = Reduce(s, ClearAssetsError{})
	assert.Empty(t, s.Assets.Error)
}

func TestReduce_DeleteKeepsTotalCount(t *testing.T) {
	s := InitialState()
	s = Reduce(s, AssetsFetched{Page: models.Page[models.Asset]{
		Count:   7,
		Results: []models.Asset{{AssetID: "a"}, {AssetID: "b"}, {AssetID: "c"}},
	}})
	s = Reduce(s, AssetFetched{Asset: models.Asset{AssetID: "b"}})

	s = Reduce(s, AssetDeleted{AssetID: "b"})

	ids := make([]string, 0, len(s.Assets.Assets))
	for _, a := range s.Assets.Assets {
		ids = append(ids, a.AssetID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
	assert.Equal(t, 7, s.Assets.TotalCount)
	assert.Nil(t, s.Assets.CurrentAsset)
}

func TestReduce_DoesNotMutatePrevious(t *testing.T) {
	before := Reduce(InitialState(), AssetsFetched{Page: models.Page[models.Asset]{
		Count:   2,
		Results: []models.Asset{{AssetID: "a"}, {AssetID: "b"}},
	}})
	before = Reduce(before, AddNotification{Notification: models.Notification{ID: "n1"}})

	after := Reduce(before, AssetDeleted{AssetID: "a"})
	after = Reduce(after, RemoveNotification{ID: "n1"})

	assert.Len(t, before.Assets.Assets, 2)
	assert.Equal(t, "a", before.Assets.Assets[0].AssetID)
	assert.Len(t, before.UI.Notifications, 1)
	assert.Empty(t, after.UI.Notifications)
}

func TestReduce_Auth(t *testing.T) {
	s := InitialState()
	s = Reduce(s, AuthFulfilled{User: models.User{ID: 1, Username: "alice"}, Token: "tok"})
	assert.True(t, s.Auth.IsAuthenticated)
	assert.Equal(t, "tok", s.Auth.Token)

	rejected := Reduce(s, AuthRejected{Reason: "nope"})
	assert.False(t, rejected.Auth.IsAuthenticated)
	assert.NotNil(t, rejected.Auth.User)

	ended := Reduce(s, AuthRejected{Reason: "expired", EndSession: true})
	assert.Nil(t, ended.Auth.User)
	assert.Empty(t, ended.Auth.Token)

	out := Reduce(s, Logout{})
	assert.Equal(t, AuthState{}, out.Auth)
}

func TestReduce_AbortClearsLoadingOnly(t *testing.T) {
	s := InitialState()
	s.Assets.Error = "earlier"
	s.Assets.IsLoading = true
	s = Reduce(s, AssetsAborted{})
	assert.False(t, s.Assets.IsLoading)
	assert.Equal(t, "earlier", s.Assets.Error)
}

func TestReduce_UI(t *testing.T) {
	s := InitialState()
	assert.Equal(t, models.ColorModeLight, s.UI.ColorMode)
	assert.True(t, s.UI.SidebarOpen)

	s = Reduce(s, SetColorMode{Mode: "purple"})
	assert.Equal(t, models.ColorModeLight, s.UI.ColorMode)

	s = Reduce(s, ToggleSidebar{})
	assert.False(t, s.UI.SidebarOpen)

	s = Reduce(s, AddNotification{Notification: models.Notification{ID: "1"}})
	s = Reduce(s, AddNotification{Notification: models.Notification{ID: "2"}})
	s = Reduce(s, RemoveNotification{ID: "1"})
	assert.Equal(t, []models.Notification{{ID: "2"}}, s.UI.Notifications)
	s = Reduce(s, ClearNotifications{})
	assert.Empty(t, s.UI.Notifications)
}
