package middleware

import (
	"github.com/gin-gonic/gin"
)

var identityHeaders = []string{"X-Operator-Id", "X-Operator-Name", "X-Operator-Email"}

// StripIdentity drops operator headers sent by the client, so only the
// auth middleware can set them for upstream services.
func StripIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range identityHeaders {
			c.Request.Header.Del(h)
		}
		c.Next()
	}
}
