package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"dev.copilot.gateway/internal/observability/metrics"
)

// Metrics records the in-flight gauge and per-request duration. Paths
// are labeled by route template so unmatched URLs cannot blow up label
// cardinality.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		collector.RequestsInFlight.Inc()

		c.Next()

		collector.RequestsInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
