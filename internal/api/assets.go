package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

const (
	pathAssets = "/assets/assets/"
	pathSearch = "/assets/search/"

	defaultUploadConcurrency = 3
)

type Assets struct {
	c *apiclient.Client
}

// Upload describes one file for Create. Empty Title and FileType are derived
// from the file name the way the upload screen does.
type Upload struct {
	FileName    string
	Title       string
	Description string
	FileType    models.FileType
	Tags        []string
	Open        func() (io.ReadCloser, error)
}

type UploadResult struct {
	FileName string
	Asset    *models.Asset
	Err      error
}

func (a *Assets) List(ctx context.Context, params models.AssetListParams) (*models.Page[models.Asset], error) {
	var out listBody[models.Asset]
	if err := a.c.Get(ctx, pathAssets, listQuery(params), &out); err != nil {
		return nil, err
	}
	return &out.page, nil
}

func (a *Assets) Get(ctx context.Context, id string) (*models.Asset, error) {
	var out models.Asset
	if err := a.c.Get(ctx, itemPath(pathAssets, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Assets) Create(ctx context.Context, upload Upload) (*models.Asset, error) {
	form, err := uploadForm(upload)
	if err != nil {
		return nil, err
	}

	var out models.Asset
	err = a.c.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: pathAssets, Form: form}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update is a partial update; only title, description and tags are sent.
func (a *Assets) Update(ctx context.Context, id string, patch models.AssetPatch) (*models.Asset, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("update asset %s: nothing to update", id)
	}
	var out models.Asset
	if err := a.c.Patch(ctx, itemPath(pathAssets, id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Assets) Delete(ctx context.Context, id string) error {
	return a.c.Delete(ctx, itemPath(pathAssets, id))
}

func (a *Assets) Search(ctx context.Context, query string) ([]models.Asset, error) {
	var out listBody[models.Asset]
	if err := a.c.Get(ctx, pathSearch, url.Values{"q": {query}}, &out); err != nil {
		return nil, err
	}
	return out.page.Results, nil
}

// BulkUpload uploads files in parallel. A failed file does not stop the
// others; results keep the input order.
func (a *Assets) BulkUpload(ctx context.Context, uploads []Upload, concurrency int) []UploadResult {
	if concurrency <= 0 {
		concurrency = defaultUploadConcurrency
	}

	results := make([]UploadResult, len(uploads))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, upload := range uploads {
		i, upload := i, upload
		g.Go(func() error {
			asset, err := a.Create(ctx, upload)
			results[i] = UploadResult{FileName: upload.FileName, Asset: asset, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func uploadForm(upload Upload) (*apiclient.Form, error) {
	if upload.FileName == "" || upload.Open == nil {
		return nil, fmt.Errorf("upload: file is required")
	}

	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = models.TitleFromFileName(upload.FileName)
	}
	fileType := upload.FileType
	if fileType == "" {
		fileType = models.InferFileType(upload.FileName)
	}
	tags := upload.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	form := &apiclient.Form{}
	form.Add("title", title)
	form.Add("description", upload.Description)
	form.Add("file_type", string(fileType))
	form.Add("tags", string(encodedTags))
	form.AddFile("file", upload.FileName, upload.Open)
	return form, nil
}

func listQuery(params models.AssetListParams) url.Values {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Ordering != "" {
		q.Set("ordering", params.Ordering)
	}

	f := params.Filters
	if f.FileType != "" {
		q.Set("file_type", string(f.FileType))
	}
	if len(f.Tags) > 0 {
		q.Set("tags", strings.Join(f.Tags, ","))
	}
	if f.DateFrom != nil {
		q.Set("created_at_after", f.DateFrom.Format(time.RFC3339))
	}
	if f.DateTo != nil {
		q.Set("created_at_before", f.DateTo.Format(time.RFC3339))
	}
	return q
}
