package apitest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gokuthong/ShelfLife-DAM/internal/middleware"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

func (s *Server) listLogs(c *gin.Context) {
	action := c.Query("action")
	userID, _ := strconv.ParseInt(c.Query("user"), 10, 64)
	assetID := c.Query("asset")

	logs := s.db.listLogs(func(e models.ActivityLogEntry) bool {
		if action != "" && string(e.Action) != action {
			return false
		}
		if userID > 0 && (e.User == nil || e.User.ID != userID) {
			return false
		}
		if assetID != "" && (e.Asset == nil || e.Asset.AssetID != assetID) {
			return false
		}
		return true
	})
	c.JSON(http.StatusOK, paginate(c, logs))
}

func (s *Server) recentActivity(c *gin.Context) {
	limit := defaultRecentLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, maxRecentLimit)
	}

	logs := s.db.listLogs(nil)
	if len(logs) > limit {
		logs = logs[:limit]
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) listComments(c *gin.Context) {
	c.JSON(http.StatusOK, paginate(c, s.db.listComments(c.Query("asset"))))
}

type commentRequest struct {
	Asset   string `json:"asset"`
	Content string `json:"content"`
}

func (s *Server) createComment(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"content": []string{"This field may not be blank."}})
		return
	}
	asset, _, err := s.db.asset(req.Asset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"asset": []string{"Invalid asset."}})
		return
	}

	comment := s.db.createComment(models.Comment{
		Asset:   &asset,
		User:    &user,
		Content: req.Content,
	})
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	comment, err := s.db.comment(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if !user.CanDeleteComment(comment) {
		middleware.Deny(c)
		return
	}

	s.db.deleteComment(comment.CommentID)
	c.Status(http.StatusNoContent)
}
