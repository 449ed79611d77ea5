package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

const permissionDenied = "You do not have permission to perform this action."

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": permissionDenied})
			return
		}

		c.Next()
	}
}

// Deny aborts with the same 403 body RequireRoles uses, for object-level
// checks inside handlers.
func Deny(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": permissionDenied})
}
