package middleware

import (
	"net/http"

	"savora-be/internal/auth"
	"savora-be/internal/user"
	"savora-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Auth populates the request context with user identity when a valid token
// is present, and with the guest session token from X-Guest-ID otherwise.
// It never rejects: handlers that need authentication use RequireAuth.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if tokenStr := auth.ExtractAccessToken(c.Request); tokenStr != "" {
			if claims, err := user.ParseJWT(tokenStr); err == nil {
				ctx = utils.SetUserContext(ctx, claims.UserID, claims.Email, claims.Role)
			}
		}

		if guestHeader := c.GetHeader("X-Guest-ID"); guestHeader != "" {
			if guestID, err := uuid.Parse(guestHeader); err == nil {
				ctx = utils.SetGuestContext(ctx, guestID)
			}
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Auth established a user identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIDFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the authenticated user is an admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.GetUserRoleFromContext(c.Request.Context()) != string(user.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
