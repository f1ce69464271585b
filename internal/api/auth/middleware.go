package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UsernameKey is the gin context key the middleware stores the
// authenticated username under
const UsernameKey = "username"

// Middleware validates the bearer token and injects the username into the
// request context
func Middleware(tokens *TokenManager, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or malformed authorization header",
			})
			return
		}

		username, err := tokens.VerifyToken(token)
		if err != nil {
			logger.Debug("Rejected bearer token",
				slog.Any("error", err),
			)
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(UsernameKey, username)
		c.Next()
	}
}

// Username returns the authenticated username from the request context
func Username(c *gin.Context) string {
	return c.GetString(UsernameKey)
}
