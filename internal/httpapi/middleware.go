package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "userID"

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// userIDHeader carries the authenticated user id set by the upstream
// identity gateway. Authentication itself happens before requests
// reach this service.
const userIDHeader = "X-User-ID"

// RequestIDMiddleware tags every request with an id for log correlation
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RequestIDKey, uuid.NewString())
		c.Next()
	}
}

// IdentityMiddleware reads the authenticated user id injected by the
// identity gateway and exposes it on the request context.
func IdentityMiddleware(responseHandler ResponseHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			responseHandler.UnauthorizedResponse(c, "Authenticated user id is required")
			c.Abort()
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id from the request context
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
