package handler

import (
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/app/economy/internal/service"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/web"
	webErrors "github.com/lk2023060901/pocketzot/pkg/web/errors"
)

// errorCode 业务错误到响应码的映射，未知错误为内部错误
func errorCode(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return webErrors.CodeInvalidParams
	case errors.Is(err, service.ErrNotFound):
		return webErrors.CodeNotFound
	case errors.Is(err, service.ErrInsufficientResource):
		return webErrors.CodeInsufficientResource
	case errors.Is(err, service.ErrPreconditionFailed):
		return webErrors.CodeConflict
	default:
		return webErrors.CodeInternalError
	}
}

// respondError 写出错误响应；内部错误只返回通用信息，细节进日志并交给上报中间件
func respondError(c *gin.Context, l logger.Logger, op string, err error) {
	code := errorCode(err)
	if code != webErrors.CodeInternalError {
		l.DebugContext(c.Request.Context(), "request rejected", "operation", op, "code", code, "error", err)
		web.Fail(c, code, err.Error())
		return
	}

	_ = c.Error(err)
	l.ErrorContext(c.Request.Context(), "request failed", "operation", op, "error", err)
	web.Fail(c, code, "internal server error")
}
