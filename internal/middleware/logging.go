package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Logging returns middleware that logs request processing time.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
		}
		if id, ok := c.Get(subjectKey); ok {
			attrs = append(attrs, "subject_id", id)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		if status >= http.StatusInternalServerError {
			slog.Error("request failed", attrs...)
			return
		}
		slog.Debug("request processed", attrs...)
	}
}
