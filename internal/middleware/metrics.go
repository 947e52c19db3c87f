package middleware

import (
	"blood_donation_dashboard/internal/platform/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records every served request. Unmatched routes share one label.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done := m.TrackHTTP(c.Request.Method, route)
		c.Next()
		done(c.Writer.Status())
	}
}
