package apitest

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

var (
	errUserNotFound    = errors.New("user not found")
	errAssetNotFound   = errors.New("asset not found")
	errCommentNotFound = errors.New("comment not found")
	errUsernameTaken   = errors.New("username already taken")
)

type userRecord struct {
	user         models.User
	passwordHash []byte
}

type assetRecord struct {
	asset   models.Asset
	content []byte
}

// db is the in-memory state of the fake server. Every accessor returns
// copies so handlers never share mutable state with the store.
type db struct {
	mu sync.RWMutex

	nextUserID int64
	users      map[int64]*userRecord
	usernames  map[string]int64

	assets   map[string]*assetRecord
	comments map[string]models.Comment
	logs     []models.ActivityLogEntry

	issuedAccess []string
	revoked      map[string]struct{}
}

func newDB() *db {
	return &db{
		nextUserID: 1,
		users:      make(map[int64]*userRecord),
		usernames:  make(map[string]int64),
		assets:     make(map[string]*assetRecord),
		comments:   make(map[string]models.Comment),
		revoked:    make(map[string]struct{}),
	}
}

func (d *db) createUser(user models.User, passwordHash []byte) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, exists := d.usernames[key]; exists {
		return models.User{}, errUsernameTaken
	}

	now := time.Now().UTC()
	user.ID = d.nextUserID
	user.DateJoined = &now
	user.IsAdmin = user.Role == models.UserRoleAdmin
	user.IsEditor = user.Role == models.UserRoleEditor
	d.nextUserID++

	d.users[user.ID] = &userRecord{user: user, passwordHash: passwordHash}
	d.usernames[key] = user.ID
	return user, nil
}

func (d *db) userByID(id int64) (models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.users[id]
	if !ok {
		return models.User{}, false
	}
	return rec.user, true
}

func (d *db) credentials(username string) (models.User, []byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.usernames[strings.ToLower(username)]
	if !ok {
		return models.User{}, nil, errUserNotFound
	}
	rec := d.users[id]
	return rec.user, rec.passwordHash, nil
}

func (d *db) touchLogin(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.users[id]; ok {
		now := time.Now().UTC()
		rec.user.LastLogin = &now
	}
}

func (d *db) listUsers() []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.User, 0, len(d.users))
	for _, rec := range d.users {
		out = append(out, rec.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *db) updateUser(id int64, fn func(*models.User)) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.users[id]
	if !ok {
		return models.User{}, errUserNotFound
	}
	fn(&rec.user)
	rec.user.IsAdmin = rec.user.Role == models.UserRoleAdmin
	rec.user.IsEditor = rec.user.Role == models.UserRoleEditor
	return rec.user, nil
}

func (d *db) setPassword(id int64, hash []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.users[id]
	if !ok {
		return errUserNotFound
	}
	rec.passwordHash = hash
	return nil
}

func (d *db) countAdmins() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, rec := range d.users {
		if rec.user.Role == models.UserRoleAdmin {
			n++
		}
	}
	return n
}

func (d *db) deleteUser(id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.users[id]
	if !ok {
		return errUserNotFound
	}
	delete(d.usernames, strings.ToLower(rec.user.Username))
	delete(d.users, id)
	return nil
}

func (d *db) createAsset(asset models.Asset, content []byte) models.Asset {
	d.mu.Lock()
	defer d.mu.Unlock()

	if asset.AssetID == "" {
		asset.AssetID = uuid.NewString()
	}
	now := time.Now().UTC()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	asset.UpdatedAt = now
	if asset.Tags == nil {
		asset.Tags = []string{}
	}

	d.assets[asset.AssetID] = &assetRecord{asset: asset, content: content}
	return asset
}

func (d *db) asset(id string) (models.Asset, []byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.assets[id]
	if !ok {
		return models.Asset{}, nil, errAssetNotFound
	}
	return rec.asset, rec.content, nil
}

func (d *db) listAssets() []models.Asset {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Asset, 0, len(d.assets))
	for _, rec := range d.assets {
		out = append(out, rec.asset)
	}
	return out
}

func (d *db) updateAsset(id string, fn func(*models.Asset)) (models.Asset, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.assets[id]
	if !ok {
		return models.Asset{}, errAssetNotFound
	}
	fn(&rec.asset)
	rec.asset.UpdatedAt = time.Now().UTC()
	return rec.asset, nil
}

func (d *db) deleteAsset(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.assets[id]; !ok {
		return errAssetNotFound
	}
	delete(d.assets, id)
	for cid, c := range d.comments {
		if c.Asset != nil && c.Asset.AssetID == id {
			delete(d.comments, cid)
		}
	}
	return nil
}

func (d *db) createComment(c models.Comment) models.Comment {
	d.mu.Lock()
	defer d.mu.Unlock()
	c.CommentID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	d.comments[c.CommentID] = c
	return c
}

func (d *db) comment(id string) (models.Comment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.comments[id]
	if !ok {
		return models.Comment{}, errCommentNotFound
	}
	return c, nil
}

func (d *db) listComments(assetID string) []models.Comment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Comment, 0)
	for _, c := range d.comments {
		if assetID == "" || (c.Asset != nil && c.Asset.AssetID == assetID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (d *db) deleteComment(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.comments, id)
}

func (d *db) logActivity(action models.ActivityAction, user *models.User, asset *models.Asset, details map[string]any, ip string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if details == nil {
		details = map[string]any{}
	}
	d.logs = append(d.logs, models.ActivityLogEntry{
		LogID:     uuid.NewString(),
		Action:    action,
		User:      user,
		Asset:     asset,
		Details:   details,
		IPAddress: ip,
		Timestamp: time.Now().UTC(),
	})
}

// listLogs returns entries newest first.
func (d *db) listLogs(match func(models.ActivityLogEntry) bool) []models.ActivityLogEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.ActivityLogEntry, 0, len(d.logs))
	for i := len(d.logs) - 1; i >= 0; i-- {
		if match == nil || match(d.logs[i]) {
			out = append(out, d.logs[i])
		}
	}
	return out
}

func (d *db) recordAccess(jti string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.issuedAccess = append(d.issuedAccess, jti)
}

func (d *db) revokeIssuedAccess() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, jti := range d.issuedAccess {
		d.revoked[jti] = struct{}{}
	}
	d.issuedAccess = nil
}

func (d *db) isRevoked(jti string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.revoked[jti]
	return ok
}
