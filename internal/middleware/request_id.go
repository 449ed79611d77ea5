package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestID adopts the id the client sent, or assigns one, and attaches a
// logger carrying it to the request context. Logger and Recovery read that
// logger back, so every line for one call shares the client's id.
func RequestID(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)

		scoped := log.With().Str(requestIDKey, id).Logger()
		c.Request = c.Request.WithContext(scoped.WithContext(c.Request.Context()))

		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// requestLogger falls back to fallback when RequestID did not run.
func requestLogger(c *gin.Context, fallback zerolog.Logger) *zerolog.Logger {
	if RequestIDFrom(c) == "" {
		return &fallback
	}
	return zerolog.Ctx(c.Request.Context())
}
