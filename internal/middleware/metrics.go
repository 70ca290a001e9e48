package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Metrics records request counts and latency per route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), start)
	}
}
