package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dostavka/selection-service/internal/pkg/cuid2"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// RequestID assigns each request a time-sortable ID, honoring one supplied
// by the gateway via X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = cuid2.Generate("req")
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
