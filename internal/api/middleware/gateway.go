package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GatewayAuth trusts the caller identity forwarded by the gateway in X-User-ID,
// X-User-Email and X-User-Role. Only use it behind a gateway that strips these headers
// from client traffic.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			return
		}

		c.Set("user_id", userID)
		c.Set("user_id_str", userID)
		c.Set("user_email", c.GetHeader("X-User-Email"))
		c.Set("user_role", c.GetHeader("X-User-Role"))

		if apiKeyID := c.GetHeader("X-API-Key-ID"); apiKeyID != "" {
			c.Set("api_key_id", apiKeyID)
		}

		c.Next()
	}
}

// UserID returns the caller id set by GatewayAuth or NoAuth
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString("user_id_str")
	return id, id != ""
}
