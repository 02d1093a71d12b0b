package middleware

import (
	"context"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	weberrors "github.com/lk2023060901/pocketzot/pkg/web/errors"
)

// PanicReportFunc 接收已 recover 的 panic 值
type PanicReportFunc func(ctx context.Context, recovered interface{})

// Recovery 恢复 panic，记录日志并返回 50000 信封
func Recovery(l logger.Logger, report PanicReportFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			httpRequest, _ := httputil.DumpRequest(c.Request, false)
			if isBrokenPipe(rec) {
				l.WarnContext(c.Request.Context(), "http broken pipe",
					"error", rec,
					"request", string(httpRequest),
				)
				if err, ok := rec.(error); ok {
					_ = c.Error(err)
				}
				c.Abort()
				return
			}

			l.ErrorContext(c.Request.Context(), "http recovery from panic",
				"error", rec,
				"request", string(httpRequest),
				"stack", string(debug.Stack()),
			)
			if report != nil {
				report(c.Request.Context(), rec)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    weberrors.CodeInternalError,
				"message": "internal server error",
				"data":    nil,
			})
		}()
		c.Next()
	}
}

func isBrokenPipe(rec interface{}) bool {
	ne, ok := rec.(*net.OpError)
	if !ok {
		return false
	}
	se, ok := ne.Err.(*os.SyscallError)
	if !ok {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
