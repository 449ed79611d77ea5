package apitest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gokuthong/ShelfLife-DAM/internal/media/sniffer"
	"github.com/gokuthong/ShelfLife-DAM/internal/middleware"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxUploadBytes  = 64 << 20
)

// paginate cuts items into the envelope list endpoints return.
func paginate[T any](c *gin.Context, items []T) models.Page[T] {
	pageSize := defaultPageSize
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 {
		pageSize = min(v, maxPageSize)
	}
	page := 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 1 {
		page = v
	}

	start := min((page-1)*pageSize, len(items))
	end := min(start+pageSize, len(items))

	out := models.Page[T]{Count: len(items), Results: items[start:end]}
	if end < len(items) {
		next := pageURL(c, page+1)
		out.Next = &next
	}
	if page > 1 {
		prev := pageURL(c, page-1)
		out.Previous = &prev
	}
	return out
}

func pageURL(c *gin.Context, page int) string {
	u := url.URL{Scheme: "http", Host: c.Request.Host, Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func matchesSearch(a models.Asset, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(a.Title), term) || strings.Contains(strings.ToLower(a.Description), term) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func (s *Server) listAssets(c *gin.Context) {
	assets := s.db.listAssets()

	search := c.Query("search")
	fileType := c.Query("file_type")
	var tags []string
	if raw := c.Query("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}
	after, errAfter := parseTimeParam(c.Query("created_at_after"))
	before, errBefore := parseTimeParam(c.Query("created_at_before"))
	if errAfter != nil || errBefore != nil {
		c.JSON(http.StatusBadRequest, gin.H{"created_at": []string{"Enter a valid date/time."}})
		return
	}

	filtered := assets[:0]
	for _, a := range assets {
		if search != "" && !matchesSearch(a, search) {
			continue
		}
		if fileType != "" && !strings.EqualFold(string(a.FileType), fileType) {
			continue
		}
		if !hasTags(a, tags) {
			continue
		}
		if after != nil && a.CreatedAt.Before(*after) {
			continue
		}
		if before != nil && a.CreatedAt.After(*before) {
			continue
		}
		filtered = append(filtered, a)
	}

	sortAssets(filtered, c.DefaultQuery("ordering", "-created_at"))
	c.JSON(http.StatusOK, paginate(c, filtered))
}

func hasTags(a models.Asset, tags []string) bool {
	for _, want := range tags {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		found := false
		for _, tag := range a.Tags {
			if strings.Contains(strings.ToLower(tag), strings.ToLower(want)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortAssets(assets []models.Asset, ordering string) {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")

	less := func(a, b models.Asset) bool {
		switch field {
		case "title":
			if !strings.EqualFold(a.Title, b.Title) {
				return strings.ToLower(a.Title) < strings.ToLower(b.Title)
			}
		case "file_size":
			if a.FileSize != b.FileSize {
				return a.FileSize < b.FileSize
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.AssetID < b.AssetID
	}

	sort.Slice(assets, func(i, j int) bool {
		if desc {
			return less(assets[j], assets[i])
		}
		return less(assets[i], assets[j])
	})
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid time")
}

func (s *Server) assetParam(c *gin.Context) (models.Asset, []byte, bool) {
	asset, content, err := s.db.asset(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return models.Asset{}, nil, false
	}
	return asset, content, true
}

func (s *Server) getAsset(c *gin.Context) {
	asset, _, ok := s.assetParam(c)
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	s.db.logActivity(models.ActionView, &user, &asset, nil, c.ClientIP())
	c.JSON(http.StatusOK, asset)
}

func (s *Server) createAsset(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"file": []string{"No file was submitted."}})
		return
	}
	defer file.Close()

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field is required."}})
		return
	}

	tags := []string{}
	if raw := c.PostForm("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"tags": []string{"Value must be valid JSON."}})
			return
		}
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"file": []string{err.Error()}})
		return
	}
	if len(content) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"file": []string{"File too large."}})
		return
	}

	fileType := models.FileType(c.PostForm("file_type"))
	if fileType == "" {
		fileType = models.InferFileType(header.Filename)
	}
	result, head, _ := sniffer.Detect(bytes.NewReader(content))
	mimeType := result.MIME
	if mimeType == "" {
		mimeType = sniffer.ContentType(head, header.Filename)
	}

	asset := s.db.createAsset(models.Asset{
		Title:         title,
		Description:   c.PostForm("description"),
		File:          header.Filename,
		FileType:      fileType,
		FileSize:      int64(len(content)),
		FileExtension: models.Extension(header.Filename),
		MimeType:      mimeType,
		Tags:          tags,
		User:          &user,
	}, content)
	asset, _ = s.db.updateAsset(asset.AssetID, func(a *models.Asset) {
		a.FileURL = s.fileURL(a.AssetID, a.File)
	})

	s.db.logActivity(models.ActionUpload, &user, &asset, map[string]any{
		"file_name": header.Filename,
		"file_size": len(content),
		"file_type": string(fileType),
	}, c.ClientIP())

	c.JSON(http.StatusCreated, asset)
}

type assetPatchRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

func (s *Server) updateAsset(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	existing, _, ok := s.assetParam(c)
	if !ok {
		return
	}
	if !user.CanEdit(existing) {
		middleware.Deny(c)
		return
	}

	var req assetPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field may not be blank."}})
		return
	}

	var changed []string
	asset, err := s.db.updateAsset(existing.AssetID, func(a *models.Asset) {
		if req.Title != nil {
			a.Title = *req.Title
			changed = append(changed, "title")
		}
		if req.Description != nil {
			a.Description = *req.Description
			changed = append(changed, "description")
		}
		if req.Tags != nil {
			a.Tags = append([]string(nil), req.Tags...)
			changed = append(changed, "tags")
		}
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	s.db.logActivity(models.ActionEdit, &user, &asset, map[string]any{
		"fields":    changed,
		"old_title": existing.Title,
	}, c.ClientIP())
	c.JSON(http.StatusOK, asset)
}

func (s *Server) deleteAsset(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	asset, _, ok := s.assetParam(c)
	if !ok {
		return
	}
	if !user.CanDeleteAsset(asset) {
		middleware.Deny(c)
		return
	}
	if err := s.db.deleteAsset(asset.AssetID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	s.db.logActivity(models.ActionDelete, &user, nil, map[string]any{"title": asset.Title}, c.ClientIP())
	c.Status(http.StatusNoContent)
}

func (s *Server) searchAssets(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	results := make([]models.Asset, 0)
	for _, a := range s.db.listAssets() {
		if matchesSearch(a, q) {
			results = append(results, a)
		}
	}
	sortAssets(results, "-created_at")
	c.JSON(http.StatusOK, results)
}

func (s *Server) downloadFile(c *gin.Context) {
	asset, content, err := s.db.asset(c.Param("id"))
	if err != nil || asset.File != c.Param("name") {
		c.Status(http.StatusNotFound)
		return
	}

	contentType := asset.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.db.logActivity(models.ActionDownload, nil, &asset, map[string]any{"file_name": asset.File}, c.ClientIP())
	c.Data(http.StatusOK, contentType, content)
}
