package store

import "github.com/gokuthong/ShelfLife-DAM/internal/models"

const DefaultPageSize = 20

type AuthState struct {
	User            *models.User
	Token           string
	IsLoading       bool
	IsAuthenticated bool
	Error           string
}

type AssetsState struct {
	Assets       []models.Asset
	CurrentAsset *models.Asset
	IsLoading    bool
	Error        string
	TotalCount   int
	CurrentPage  int
	PageSize     int
	SearchQuery  string
	Filters      models.AssetFilters
}

type UIState struct {
	ColorMode     models.ColorMode
	SidebarOpen   bool
	Notifications []models.Notification
}

// State is treated as immutable: reducers return a new value and never write
// through slices or pointers held by a previous State.
type State struct {
	Auth   AuthState
	Assets AssetsState
	UI     UIState
}

func InitialState() State {
	return State{
		Assets: AssetsState{
			Assets:      []models.Asset{},
			CurrentPage: 1,
			PageSize:    DefaultPageSize,
		},
		UI: UIState{
			ColorMode:     models.ColorModeLight,
			SidebarOpen:   true,
			Notifications: []models.Notification{},
		},
	}
}

// ListParams builds the list request for the current page and criteria.
func (s AssetsState) ListParams() models.AssetListParams {
	return models.AssetListParams{
		Page:     s.CurrentPage,
		PageSize: s.PageSize,
		Search:   s.SearchQuery,
		Filters:  s.Filters,
	}
}
