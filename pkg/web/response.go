package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/pkg/otel"
	"github.com/lk2023060901/pocketzot/pkg/web/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 提示信息
	Data    any    `json:"data"`    // 数据载体
	TraceID string `json:"trace_id,omitempty"`
}

func traceID(c *gin.Context) string {
	return otel.TraceIDFromContext(c.Request.Context())
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.CodeOK,
		Message: "ok",
		Data:    data,
		TraceID: traceID(c),
	})
}

// Created 资源创建成功
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code:    errors.CodeOK,
		Message: "created",
		Data:    data,
		TraceID: traceID(c),
	})
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// Fail 按业务码推导 HTTP 状态码
func Fail(c *gin.Context, code int, message string) {
	Error(c, errors.CodeToStatus(code), code, message)
}

// AbortWithError 中断并返回错误
func AbortWithError(c *gin.Context, httpStatus int, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}
