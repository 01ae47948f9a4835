package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gatepass/pkg/metrics"
)

// Route surfaces used as the "surface" latency label.
const (
	SurfaceScan      = "scan"
	SurfaceAdmin     = "admin"
	SurfaceRealtime  = "realtime"
	SurfaceHealth    = "health"
	SurfaceOps       = "ops"
	SurfaceUnmatched = "unmatched"
)

// Metrics records request latency per route template and surface. Requests that
// match no route share a single series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		path := c.FullPath()
		surface := RouteSurface(path)
		if path == "" {
			path = SurfaceUnmatched
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, path, status, surface).Observe(duration)
	}
}

// RouteSurface classifies a route template into the part of the service it serves.
func RouteSurface(path string) string {
	if path == "" {
		return SurfaceUnmatched
	}
	path = strings.TrimPrefix(path, "/api")
	switch {
	case strings.HasPrefix(path, "/validate"):
		return SurfaceScan
	case strings.HasPrefix(path, "/health"):
		return SurfaceHealth
	case strings.HasPrefix(path, "/realtime"):
		return SurfaceRealtime
	case strings.HasPrefix(path, "/registrants"),
		strings.HasPrefix(path, "/credentials"),
		strings.HasPrefix(path, "/reports"),
		strings.HasPrefix(path, "/admin"):
		return SurfaceAdmin
	default:
		return SurfaceOps
	}
}
