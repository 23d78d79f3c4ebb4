package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vaultshare/internal/metrics"
)

// Metrics records request counts and latency per route template. The
// template (c.FullPath) keeps share tokens out of label values.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
