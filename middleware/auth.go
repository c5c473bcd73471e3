package middleware

import (
	"strings"

	"wedbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OptionalIdentityMiddleware records who submitted a request when a valid
// bearer token is presented. It never rejects a request; a missing secret
// disables it.
func OptionalIdentityMiddleware(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if secret == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := utils.ExtractIDFromToken(secret, tokenString)
		if err != nil {
			logger.Debug("ignoring unusable bearer token", zap.Error(err))
			c.Next()
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

// UserID returns the identity set by OptionalIdentityMiddleware, or "".
func UserID(c *gin.Context) string {
	return c.GetString("userID")
}

// RequestLogger attaches a request-scoped logger for handlers to pick up.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("ip", getClientIP(c)),
		))
		c.Next()
	}
}
