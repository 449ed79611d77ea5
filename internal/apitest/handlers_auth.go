package apitest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gokuthong/ShelfLife-DAM/internal/middleware"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/security"
)

type sessionResponse struct {
	User    models.User `json:"user"`
	Refresh string      `json:"refresh"`
	Access  string      `json:"access"`
	Message string      `json:"message,omitempty"`
}

func (s *Server) login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide both username and password"})
		return
	}

	user, hash, err := s.db.credentials(req.Username)
	if err == nil {
		var ok bool
		ok, err = verifyPassword(req.Password, hash)
		if err == nil && !ok {
			err = errors.New("password mismatch")
		}
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	s.db.touchLogin(user.ID)
	user, _ = s.db.userByID(user.ID)
	s.sendSession(c, http.StatusOK, user, "")
}

func (s *Server) registerUser(c *gin.Context) {
	var req models.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Registration failed: " + err.Error()})
		return
	}

	fieldErrors := gin.H{}
	if strings.TrimSpace(req.Username) == "" {
		fieldErrors["username"] = []string{"This field is required."}
	}
	if !strings.Contains(req.Email, "@") {
		fieldErrors["email"] = []string{"Enter a valid email address."}
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = []string{"This password is too short. It must contain at least 8 characters."}
	} else if req.Password != req.Password2 {
		fieldErrors["password"] = []string{"Password fields didn't match."}
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, fieldErrors)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Public registration always creates viewers.
	user, err := s.db.createUser(models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.UserRoleViewer,
	}, hash)
	if errors.Is(err, errUsernameTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"username": []string{"A user with that username already exists."}})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Registration failed: " + err.Error()})
		return
	}

	s.sendSession(c, http.StatusCreated, user, "User registered successfully")
}

func (s *Server) sendSession(c *gin.Context, status int, user models.User, message string) {
	access, refresh, err := s.issuePair(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(status, sessionResponse{User: user, Refresh: refresh, Access: access, Message: message})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"refresh": []string{"This field is required."}})
		return
	}

	claims, err := security.ParseToken(req.Refresh, s.secret, security.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}
	user, ok := s.db.userByID(claims.UserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}

	if s.rotateRefresh {
		access, refresh, err := s.issuePair(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access": access, "refresh": refresh})
		return
	}

	access, err := s.issueAccess(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (s *Server) profile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateProfile(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email != nil && !strings.Contains(*req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"email": []string{"Enter a valid email address."}})
		return
	}

	user, err := s.db.updateUser(current.ID, func(u *models.User) {
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.Email != nil {
			u.Email = *req.Email
		}
		if req.ProfileInfo != nil {
			u.ProfileInfo = *req.ProfileInfo
		}
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) changePassword(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	var req models.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.NewPassword != req.NewPassword2 {
		c.JSON(http.StatusBadRequest, gin.H{"new_password": []string{"Password fields didn't match."}})
		return
	}
	if len(req.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"new_password": []string{"This password is too short. It must contain at least 8 characters."}})
		return
	}

	_, hash, err := s.db.credentials(current.Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if ok, err := verifyPassword(req.OldPassword, hash); err != nil || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"old_password": []string{"Wrong password."}})
		return
	}

	newHash, err := hashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.db.setPassword(current.ID, newHash); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.db.listUsers())
}

func (s *Server) userParam(c *gin.Context) (models.User, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return models.User{}, false
	}
	user, ok := s.db.userByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return models.User{}, false
	}
	return user, true
}

func (s *Server) getUser(c *gin.Context) {
	user, ok := s.userParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateUser(c *gin.Context) {
	target, ok := s.userParam(c)
	if !ok {
		return
	}

	var req models.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"role": []string{`"` + string(*req.Role) + `" is not a valid choice.`}})
		return
	}

	user, err := s.db.updateUser(target.ID, func(u *models.User) {
		if req.Email != nil {
			u.Email = *req.Email
		}
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.Role != nil {
			u.Role = *req.Role
		}
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)
	target, ok := s.userParam(c)
	if !ok {
		return
	}

	if target.ID == current.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot delete your own account"})
		return
	}
	if target.Role == models.UserRoleAdmin && s.db.countAdmins() <= 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot delete the last admin account"})
		return
	}

	if err := s.db.deleteUser(target.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
