package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"outpost/internal/db/repositories"
)

// AuthMiddleware resolves the caller identity once per request from the
// Authorization header. Handlers downstream read user_id / is_admin from the
// gin context and never parse credentials themselves.
type AuthMiddleware struct {
	auth      *AuthService
	localMode bool
}

func NewAuthMiddleware(repos *repositories.Repositories) *AuthMiddleware {
	return &AuthMiddleware{
		auth:      NewAuthService(repos),
		localMode: false,
	}
}

// NewAuthMiddlewareWithLocalMode skips authentication when running as a
// single-user local install.
func NewAuthMiddlewareWithLocalMode(repos *repositories.Repositories, localMode bool) *AuthMiddleware {
	return &AuthMiddleware{
		auth:      NewAuthService(repos),
		localMode: localMode,
	}
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"message": message,
			"type":    "unauthorized",
		},
	})
	c.Abort()
}

// Authenticate validates the API key from the Bearer token
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.localMode {
			c.Set("user_id", int64(1))
			c.Set("is_admin", true)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Unauthorized")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "invalid authorization header format, expected Bearer token")
			return
		}

		apiKey := strings.TrimPrefix(authHeader, "Bearer ")
		if apiKey == "" {
			unauthorized(c, "empty API key")
			return
		}

		user, err := am.auth.AuthenticateAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			unauthorized(c, "invalid API key")
			return
		}

		c.Set("user_id", user.ID)
		c.Set("is_admin", user.IsAdmin)

		c.Next()
	}
}

// RequireAdmin ensures the authenticated user is an admin
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get("is_admin")
		if !exists || !isAdmin.(bool) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"message": "admin privileges required",
					"type":    "forbidden",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserIDFromContext extracts the user ID from the Gin context
func GetUserIDFromContext(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(int64)
	return id, ok
}
