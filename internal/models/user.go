package models

import "time"

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleEditor UserRole = "editor"
	UserRoleViewer UserRole = "viewer"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleEditor, UserRoleViewer:
		return true
	}
	return false
}

type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        UserRole   `json:"role"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	ProfileInfo string     `json:"profile_info,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	IsAdmin     bool       `json:"is_admin,omitempty"`
	IsEditor    bool       `json:"is_editor,omitempty"`
	DateJoined  *time.Time `json:"date_joined,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Username
}

func (u User) admin() bool {
	return u.Role == UserRoleAdmin || u.IsAdmin
}

func (u User) editor() bool {
	return u.Role == UserRoleEditor || u.IsEditor
}

// Role gates below are advisory. The server stays authoritative and answers
// 403 when a gate is bypassed.

func (u User) CanUpload() bool {
	return u.admin() || u.editor()
}

func (u User) CanEdit(asset Asset) bool {
	if u.admin() {
		return true
	}
	return u.editor() && asset.User != nil && asset.User.ID == u.ID
}

func (u User) CanDeleteAsset(asset Asset) bool {
	return u.CanEdit(asset)
}

func (u User) CanManageUsers() bool {
	return u.admin()
}

func (u User) CanViewActivity() bool {
	return u.admin() || u.editor()
}

func (u User) CanDeleteComment(c Comment) bool {
	if u.admin() || u.editor() {
		return true
	}
	return c.User != nil && c.User.ID == u.ID
}

// ProfileUpdate is the self-service profile patch. Role is deliberately absent:
// a user cannot change their own role.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	ProfileInfo *string `json:"profile_info,omitempty"`
}

// UserUpdate is the admin-side patch of another user's account.
type UserUpdate struct {
	Email     *string   `json:"email,omitempty"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Role      *UserRole `json:"role,omitempty"`
}

type PasswordChange struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password2"`
}
