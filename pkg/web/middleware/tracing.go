package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/pkg/otel"
)

// HeaderTraceID 响应中回写的 trace id
const HeaderTraceID = "X-Trace-ID"

// Tracing 为每个请求创建 server span，并从请求头提取上游 trace context
func Tracing(serviceName string) gin.HandlerFunc {
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		// 每次请求取全局 provider，允许启动后替换
		tracer := otel.GetTracerProvider().Tracer("web")
		ctx := propagator.Extract(c.Request.Context(), otel.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		spanName := fmt.Sprintf("%s %s", c.Request.Method, route)
		if route == "" {
			spanName = fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		}

		ctx, span := tracer.Start(ctx, spanName,
			otel.WithSpanKind(otel.SpanKindServer),
			otel.WithAttributes(
				otel.String("http.method", c.Request.Method),
				otel.String("http.path", c.Request.URL.Path),
				otel.String("http.route", route),
				otel.String("service.name", serviceName),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		if tid := otel.TraceIDFromContext(ctx); tid != "" {
			c.Header(HeaderTraceID, tid)
		}

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(otel.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(otel.CodeError, fmt.Sprintf("HTTP status %d", status))
		} else {
			span.SetStatus(otel.CodeOk, "")
		}
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last().Err)
		}
	}
}
