package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"calagent/internal/logging"
)

// requestLogMiddleware logs one line per API request with latency and
// status.
func requestLogMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("server: %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
