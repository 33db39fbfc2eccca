// Package middleware holds the HTTP middleware for the labflow server.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader is the header clients authenticate with.
const APIKeyHeader = "x-api-key"

// RequireAPIKey rejects requests whose key header does not match the
// configured key. An empty configured key disables the check entirely.
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		if c.GetHeader(APIKeyHeader) != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing api key",
			})
			return
		}
		c.Next()
	}
}
