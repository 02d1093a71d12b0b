package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/pkg/web/metrics"
)

// Metrics 请求计数与耗时
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// 使用路由模板而非实际路径，避免标签基数膨胀
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		m.Observe(path, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
