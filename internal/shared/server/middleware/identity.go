package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "userId"

	// anonymousUser is the identity used when the caller sends no
	// X-User-Id header; their analyses and scores are still persisted,
	// just under a shared bucket.
	anonymousUser = "anonymous"
)

// Identity stores the caller identity from the X-User-Id header in the
// request context. Authentication is handled upstream of this service.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			userID = anonymousUser
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID stored by the Identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
