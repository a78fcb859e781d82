package middlewares

import (
	"net/http"
	"time"

	"smartmob-dashboard/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequireBackend answers 503 for every request when the backend is not
// configured, so network-backed routes degrade without crashing.
func RequireBackend(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Backend non configurato: impostare BACKEND_BASE_URL"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// NoStore marks live data as uncacheable.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		path := c.Request.URL.Path
		switch {
		case status >= 500:
			log.Error("%s %s -> %d (%v) %s", c.Request.Method, path, status, latency, c.Errors.String())
		case status >= 400:
			log.Warning("%s %s -> %d (%v)", c.Request.Method, path, status, latency)
		default:
			log.Info("%s %s -> %d (%v)", c.Request.Method, path, status, latency)
		}
	}
}
