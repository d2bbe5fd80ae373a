package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by the middleware.
const (
	ContextKeyUserID    = "auth_user_id"
	ContextKeyUserEmail = "auth_user_email"
	ContextKeyUserRole  = "auth_user_role"
)

// RequireAuth verifies the Bearer token and aborts with 401 when it is
// missing or invalid. On success the user's identity lands in the context.
func RequireAuth(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authentication required",
			})
			return
		}

		claims, err := m.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.Subject)
		c.Set(ContextKeyUserEmail, claims.Email)
		c.Set(ContextKeyUserRole, claims.Role)
		c.Next()
	}
}

// AuthenticatedUserID returns the user ID set by RequireAuth, or "" when the
// request is unauthenticated.
func AuthenticatedUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
