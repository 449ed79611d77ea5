package store

import "github.com/gokuthong/ShelfLife-DAM/internal/models"

// Reduce is the root reducer. It is pure: no I/O and no mutation of s.
func Reduce(s State, a Action) State {
	s.Auth = reduceAuth(s.Auth, a)
	s.Assets = reduceAssets(s.Assets, a)
	s.UI = reduceUI(s.UI, a)
	return s
}

func reduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case AuthPending:
		s.IsLoading = true
		s.Error = ""
	case AuthFulfilled:
		user := a.User
		s.IsLoading = false
		s.IsAuthenticated = true
		s.User = &user
		s.Token = a.Token
		s.Error = ""
	case AuthRejected:
		s.IsLoading = false
		s.IsAuthenticated = false
		s.Error = a.Reason
		if a.EndSession {
			s.User = nil
			s.Token = ""
		}
	case AuthAborted:
		s.IsLoading = false
	case Logout:
		s = AuthState{}
	case ClearAuthError:
		s.Error = ""
	}
	return s
}

func reduceAssets(s AssetsState, a Action) AssetsState {
	switch a := a.(type) {
	case AssetsPending:
		s.IsLoading = true
		s.Error = ""
	case AssetsFetched:
		s.IsLoading = false
		s.Error = ""
		s.Assets = a.Page.Results
		if s.Assets == nil {
			s.Assets = []models.Asset{}
		}
		s.TotalCount = a.Page.Count
	case AssetFetched:
		asset := a.Asset
		s.IsLoading = false
		s.Error = ""
		s.CurrentAsset = &asset
	case AssetDeleted:
		// TotalCount is left alone; callers that need it exact refetch.
		s.IsLoading = false
		s.Error = ""
		kept := make([]models.Asset, 0, len(s.Assets))
		for _, asset := range s.Assets {
			if asset.AssetID != a.AssetID {
				kept = append(kept, asset)
			}
		}
		s.Assets = kept
		if s.CurrentAsset != nil && s.CurrentAsset.AssetID == a.AssetID {
			s.CurrentAsset = nil
		}
	case AssetsRejected:
		s.IsLoading = false
		s.Error = a.Reason
	case AssetsAborted:
		s.IsLoading = false
	case SetSearchQuery:
		s.SearchQuery = a.Query
		s.CurrentPage = 1
	case SetFilters:
		s.Filters = a.Filters
		s.CurrentPage = 1
	case SetCurrentPage:
		if a.Page >= 1 {
			s.CurrentPage = a.Page
		}
	case ClearCurrentAsset:
		s.CurrentAsset = nil
	case ClearAssetsError:
		s.Error = ""
	}
	return s
}

func reduceUI(s UIState, a Action) UIState {
	switch a := a.(type) {
	case SetColorMode:
		if a.Mode.Valid() {
			s.ColorMode = a.Mode
		}
	case ToggleSidebar:
		s.SidebarOpen = !s.SidebarOpen
	case SetSidebarOpen:
		s.SidebarOpen = a.Open
	case AddNotification:
		next := make([]models.Notification, len(s.Notifications), len(s.Notifications)+1)
		copy(next, s.Notifications)
		s.Notifications = append(next, a.Notification)
	case RemoveNotification:
		kept := make([]models.Notification, 0, len(s.Notifications))
		for _, n := range s.Notifications {
			if n.ID != a.ID {
				kept = append(kept, n)
			}
		}
		s.Notifications = kept
	case ClearNotifications:
		s.Notifications = []models.Notification{}
	}
	return s
}
