package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

const ClaimsKey = "claims"

// RequireScope admits requests whose bearer token grants scope. It is a
// pass-through when auth is not configured.
func RequireScope(auth *services.AuthService, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Enabled() {
			c.Next()
			return
		}
		tokenStr, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := auth.Authorize(tokenStr, scope)
		switch {
		case errors.Is(err, services.ErrInsufficientScope):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token lacks the " + scope + " scope"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
