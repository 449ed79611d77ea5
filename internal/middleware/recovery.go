package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into the generic 500 body the DAM API
// sends for unexpected failures.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			requestLogger(c, log).Error().
				Interface("panic", r).
				Str("method", c.Request.Method).
				Str("path", c.FullPath()).
				Msg("handler panicked")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "A server error occurred."})
		}()
		c.Next()
	}
}
