package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.copilot.gateway/internal/models"
)

// APIKeyAuth validates the gateway API key. The key may arrive as
// "Authorization: Bearer <key>", "Authorization: ApiKey <key>", the raw
// key in the Authorization header, or in X-API-Key. An empty configured
// key disables authentication entirely (dev mode).
func APIKeyAuth(apiKey string, log *logrus.Logger) gin.HandlerFunc {
	if apiKey == "" {
		log.Warn("API_KEY is not set, authentication is disabled")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	want := []byte(apiKey)
	return func(c *gin.Context) {
		got := []byte(extractAPIKey(c))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
			return
		}
		c.Next()
	}
}

// extractAPIKey pulls the client key from the request headers.
func extractAPIKey(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		switch {
		case strings.HasPrefix(header, "Bearer "):
			return strings.TrimPrefix(header, "Bearer ")
		case strings.HasPrefix(header, "ApiKey "):
			return strings.TrimPrefix(header, "ApiKey ")
		default:
			return header
		}
	}
	return c.GetHeader("X-API-Key")
}
