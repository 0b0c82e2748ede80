package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biehatieha/timetable-api/internal/service"
)

// Metrics records a duration histogram and a request counter per route.
// Unmatched routes fall back to the raw path; the scrape endpoint itself is
// not observed.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
