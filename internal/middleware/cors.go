package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows the counter frontend (served from a different origin) to talk
// to the API. The shop UI sends the JWT in the Authorization header, so that
// header must be whitelisted for preflight to pass.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
