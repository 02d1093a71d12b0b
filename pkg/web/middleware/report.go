package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorReportFunc 上报服务端错误，tags 为路由等附加信息
type ErrorReportFunc func(ctx context.Context, err error, tags map[string]string)

// ReportErrors 响应为 5xx 且 handler 通过 c.Error 记录了错误时上报最后一个错误
func ReportErrors(report ErrorReportFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		report(c.Request.Context(), c.Errors.Last().Err, map[string]string{
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"request_id": c.Writer.Header().Get(HeaderRequestID),
		})
	}
}
