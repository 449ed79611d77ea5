package store

import (
	"context"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

// FetchAssets loads one page of assets. Zero page and page size fall back
// to the values held in the slice.
func (s *Store) FetchAssets(ctx context.Context, params models.AssetListParams) error {
	current := s.State().Assets
	if params.Page < 1 {
		params.Page = current.CurrentPage
	}
	if params.PageSize < 1 {
		params.PageSize = current.PageSize
	}

	s.Dispatch(AssetsPending{})
	page, err := s.api.Assets.List(ctx, params)
	if err != nil {
		s.Dispatch(settle(ctx, AssetsAborted{}, AssetsRejected{Reason: apiclient.Message(err)}))
		return err
	}
	s.Dispatch(settle(ctx, AssetsAborted{}, AssetsFetched{Page: *page}))
	return nil
}

// Refresh reloads the listing for the slice's current page and criteria.
func (s *Store) Refresh(ctx context.Context) error {
	return s.FetchAssets(ctx, s.State().Assets.ListParams())
}

func (s *Store) FetchAssetByID(ctx context.Context, id string) error {
	s.Dispatch(AssetsPending{})
	asset, err := s.api.Assets.Get(ctx, id)
	if err != nil {
		s.Dispatch(settle(ctx, AssetsAborted{}, AssetsRejected{Reason: apiclient.Message(err)}))
		return err
	}
	s.Dispatch(settle(ctx, AssetsAborted{}, AssetFetched{Asset: *asset}))
	return nil
}

func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	s.Dispatch(AssetsPending{})
	if err := s.api.Assets.Delete(ctx, id); err != nil {
		s.Dispatch(settle(ctx, AssetsAborted{}, AssetsRejected{Reason: apiclient.Message(err)}))
		return err
	}
	s.Dispatch(settle(ctx, AssetsAborted{}, AssetDeleted{AssetID: id}))
	return nil
}

func (s *Store) SetSearchQuery(query string) {
	s.Dispatch(SetSearchQuery{Query: query})
}

func (s *Store) SetFilters(filters models.AssetFilters) {
	s.Dispatch(SetFilters{Filters: filters})
}

func (s *Store) SetCurrentPage(page int) {
	s.Dispatch(SetCurrentPage{Page: page})
}

func (s *Store) ClearCurrentAsset() {
	s.Dispatch(ClearCurrentAsset{})
}

func (s *Store) ClearAssetsError() {
	s.Dispatch(ClearAssetsError{})
}
