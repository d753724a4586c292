package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"photoboard/api/internal/security"
	"photoboard/api/internal/service"
)

const claimsContextKey = "access_claims"

// Auth requires a valid operator bearer token whose session has not been
// revoked.
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := auth.Validate(c.Request.Context(), tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set(claimsContextKey, *claims)
		c.Next()
	}
}

// ClaimsFrom returns the access claims Auth stored on the request.
func ClaimsFrom(c *gin.Context) (security.AccessClaims, bool) {
	val, exists := c.Get(claimsContextKey)
	if !exists {
		return security.AccessClaims{}, false
	}
	claims, ok := val.(security.AccessClaims)
	return claims, ok
}
