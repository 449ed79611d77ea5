// Package apitest runs an in-memory DAM REST API for tests. It speaks the
// same routes, token flow and error bodies as the real server.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gokuthong/ShelfLife-DAM/internal/middleware"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/security"
)

const apiPrefix = "/api"

type stub struct {
	status int
	body   any
}

type Server struct {
	// URL is the API base, including the /api prefix.
	URL string

	http   *httptest.Server
	engine *gin.Engine
	db     *db
	log    zerolog.Logger

	secret        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	rotateRefresh bool

	mu      sync.Mutex
	calls   map[string]int
	stubs   map[string]stub
	latency time.Duration
}

type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) { s.accessTTL = ttl }
}

// WithRefreshRotation makes the refresh endpoint return a new refresh token.
func WithRefreshRotation() Option {
	return func(s *Server) { s.rotateRefresh = true }
}

// NewServer starts the fake API and stops it when tb finishes.
func NewServer(tb testing.TB, opts ...Option) *Server {
	tb.Helper()
	s := New(opts...)
	s.http = httptest.NewServer(s.engine)
	s.URL = s.http.URL + apiPrefix
	tb.Cleanup(s.Close)
	return s
}

// New builds the server without listening; use Handler to mount it.
func New(opts ...Option) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		db:         newDB(),
		log:        zerolog.Nop(),
		secret:     "apitest-signing-key",
		accessTTL:  5 * time.Minute,
		refreshTTL: 24 * time.Hour,
		calls:      make(map[string]int),
		stubs:      make(map[string]stub),
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(s.log),
		middleware.Logger(s.log),
		middleware.Recovery(s.log),
		s.intercept(),
	)
	s.register(engine.Group(apiPrefix))
	engine.GET("/media/assets/:id/:name", s.downloadFile)
	s.engine = engine

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Close() {
	if s.http != nil {
		s.http.Close()
	}
}

func (s *Server) register(router *gin.RouterGroup) {
	router.GET("/healthz", s.health)

	auth := router.Group("/auth")
	auth.POST("/login/", s.login)
	auth.POST("/register/", s.registerUser)
	auth.POST("/token/refresh/", s.refresh)

	authed := router.Group("")
	authed.Use(middleware.Auth(s.secret, s.db.userByID, s.db.isRevoked))

	authed.GET("/auth/profile/", s.profile)
	authed.PUT("/auth/profile/", s.updateProfile)
	authed.PATCH("/auth/profile/", s.updateProfile)
	authed.POST("/auth/profile/change-password/", s.changePassword)

	users := authed.Group("/auth/users")
	users.Use(middleware.RequireRoles(models.UserRoleAdmin))
	users.GET("/", s.listUsers)
	users.GET("/:id/", s.getUser)
	users.PUT("/:id/", s.updateUser)
	users.PATCH("/:id/", s.updateUser)
	users.DELETE("/:id/", s.deleteUser)

	editors := middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleEditor)

	authed.GET("/assets/assets/", s.listAssets)
	authed.POST("/assets/assets/", editors, s.createAsset)
	authed.GET("/assets/assets/:id/", s.getAsset)
	authed.PATCH("/assets/assets/:id/", editors, s.updateAsset)
	authed.PUT("/assets/assets/:id/", editors, s.updateAsset)
	authed.DELETE("/assets/assets/:id/", editors, s.deleteAsset)
	authed.GET("/assets/search/", s.searchAssets)

	authed.GET("/activity/logs/", editors, s.listLogs)
	authed.GET("/activity/recent/", s.recentActivity)
	authed.GET("/activity/comments/", s.listComments)
	authed.POST("/activity/comments/", s.createComment)
	authed.DELETE("/activity/comments/:id/", s.deleteComment)
}

// intercept counts calls and applies stubs and artificial latency.
func (s *Server) intercept() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := callKey(c.Request.Method, strings.TrimPrefix(c.Request.URL.Path, apiPrefix))

		s.mu.Lock()
		s.calls[key]++
		st, stubbed := s.stubs[key]
		latency := s.latency
		s.mu.Unlock()

		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}

		if stubbed {
			if st.body == nil {
				c.AbortWithStatus(st.status)
				return
			}
			if text, ok := st.body.(string); ok {
				c.Abort()
				c.String(st.status, text)
				return
			}
			c.AbortWithStatusJSON(st.status, st.body)
			return
		}

		c.Next()
	}
}

func callKey(method, path string) string {
	return method + " " + path
}

// Calls reports how many requests hit method and path (path without /api).
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[callKey(method, path)]
}

// Stub makes every request to method and path answer with status and body.
// A string body is sent as text, nil sends no body.
func (s *Server) Stub(method, path string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[callKey(method, path)] = stub{status: status, body: body}
}

func (s *Server) Unstub(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stubs, callKey(method, path))
}

func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// AddUser seeds an account.
func (s *Server) AddUser(username, password string, role models.UserRole) models.User {
	hash, err := hashPassword(password)
	if err != nil {
		panic(fmt.Sprintf("apitest: hash password: %v", err))
	}
	user, err := s.db.createUser(models.User{
		Username: username,
		Email:    username + "@shelflife.test",
		Role:     role,
	}, hash)
	if err != nil {
		panic(fmt.Sprintf("apitest: add user %s: %v", username, err))
	}
	return user
}

// AddAsset seeds an asset owned by owner, with optional file content.
func (s *Server) AddAsset(owner models.User, asset models.Asset, content []byte) models.Asset {
	asset.User = &owner
	if asset.FileType == "" {
		asset.FileType = models.InferFileType(asset.File)
	}
	if asset.File != "" {
		asset.FileExtension = models.Extension(asset.File)
	}
	if content != nil {
		asset.FileSize = int64(len(content))
	}
	created := s.db.createAsset(asset, content)
	if created.File != "" {
		created, _ = s.db.updateAsset(created.AssetID, func(a *models.Asset) {
			a.FileURL = s.fileURL(a.AssetID, a.File)
		})
	}
	return created
}

func (s *Server) Asset(id string) (models.Asset, bool) {
	a, _, err := s.db.asset(id)
	return a, err == nil
}

func (s *Server) ActivityCount(action models.ActivityAction) int {
	return len(s.db.listLogs(func(e models.ActivityLogEntry) bool { return e.Action == action }))
}

// IssueSession returns a token pair for user without going through login.
func (s *Server) IssueSession(user models.User) (access, refresh string) {
	access, refresh, err := s.issuePair(user)
	if err != nil {
		panic(fmt.Sprintf("apitest: issue session: %v", err))
	}
	return access, refresh
}

// RevokeAccessTokens invalidates every access token issued so far, which
// forces clients through the refresh flow on their next request.
func (s *Server) RevokeAccessTokens() {
	s.db.revokeIssuedAccess()
}

func (s *Server) issueAccess(user models.User) (string, error) {
	access, err := security.IssueToken(s.secret, user.ID, string(user.Role), security.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return "", err
	}
	claims, err := security.Inspect(access)
	if err != nil {
		return "", err
	}
	s.db.recordAccess(claims.ID)
	return access, nil
}

func (s *Server) issuePair(user models.User) (string, string, error) {
	access, err := s.issueAccess(user)
	if err != nil {
		return "", "", err
	}
	refresh, err := security.IssueToken(s.secret, user.ID, string(user.Role), security.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Server) fileURL(assetID, fileName string) string {
	base := strings.TrimSuffix(s.URL, apiPrefix)
	return fmt.Sprintf("%s/media/assets/%s/%s", base, assetID, fileName)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
