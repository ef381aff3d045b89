package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

const (
	userIDKey    = "userID"
	principalKey = "principal"
)

// AuthMiddleware resolves the bearer token to a principal and sets user context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn().Str("path", c.Request.URL.Path).Msg("[Auth] Missing Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Warn().Str("path", c.Request.URL.Path).Msg("[Auth] Invalid header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		principal, err := authService.ResolvePrincipal(c.Request.Context(), parts[1])
		if err != nil {
			if !errors.Is(err, service.ErrUnauthorized) {
				logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("[Auth] principal resolution failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("[Auth] Invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(userIDKey, principal.ID)
		c.Set(principalKey, *principal)
		c.Next()
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetPrincipal returns the principal set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (service.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return service.Principal{}, false
	}
	p, ok := v.(service.Principal)
	return p, ok
}

// RequirePrincipal writes 401 when no principal is in context.
func RequirePrincipal(c *gin.Context) (service.Principal, bool) {
	p, ok := GetPrincipal(c)
	if !ok || p.ID == "" {
		logger.Warn().Str("path", c.Request.URL.Path).Msg("[Auth] User not authenticated")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return service.Principal{}, false
	}
	return p, true
}
