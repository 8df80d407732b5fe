package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellora/storefront/internal/guard"
	"github.com/sellora/storefront/internal/logger"
)

// Logging logs method, path, status and duration for each request.
func Logging(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		l.Info("HTTP request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// Guarded applies the navigation guard's decision for a route before its
// handler runs: denied navigations answer with a redirect to the path the
// guard names.
func Guarded(g *guard.Guard, to guard.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := guard.Route{Path: c.Request.Referer()}

		decision, err := g.Check(c.Request.Context(), to, from)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session bootstrap did not resolve"})
			return
		}

		if !decision.Allowed {
			c.Redirect(http.StatusSeeOther, decision.RedirectTo)
			c.Abort()
			return
		}

		c.Next()
	}
}
