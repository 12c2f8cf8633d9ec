package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
)

// RequestLogger writes one structured entry per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		zl := log.Zerolog()
		event := zl.Info()
		if status >= 500 {
			event = zl.Error()
		}
		event = event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.ClientIP())
		if ua := c.Request.UserAgent(); ua != "" {
			event = event.Str("user_agent", ua)
		}
		if op := c.GetHeader("X-Operator-Id"); op != "" {
			event = event.Str("operator", op)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("http_request")
	}
}
