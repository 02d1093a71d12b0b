package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/pkg/logger"
)

// Logger 访问日志，request_id 与 trace_id 由 logger 的 context 提取器附加
func Logger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"query", query,
			"ip", c.ClientIP(),
			"latency", time.Since(start).String(),
			"user_agent", c.Request.UserAgent(),
		}

		ctx := c.Request.Context()
		switch {
		case len(c.Errors) > 0 && status >= 500:
			l.ErrorContext(ctx, "http request failed", append(fields, "error", c.Errors.Last().Err)...)
		case len(c.Errors) > 0:
			l.WarnContext(ctx, "http request rejected", append(fields, "error", c.Errors.Last().Err)...)
		case status >= 400:
			l.WarnContext(ctx, "http request", fields...)
		default:
			l.InfoContext(ctx, "http request", fields...)
		}
	}
}
