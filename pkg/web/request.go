package web

import (
	"fmt"
	"strconv"
	"strings"

	cerrors "github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lk2023060901/pocketzot/pkg/web/errors"
)

// BindAndValidate 绑定请求参数并校验，失败时已写出 400 响应
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		var errs validator.ValidationErrors
		if cerrors.As(err, &errs) {
			Fail(c, errors.CodeInvalidParams, formatValidationErrors(errs))
			return false
		}
		Fail(c, errors.CodeInvalidParams, "invalid request parameters: "+err.Error())
		return false
	}
	return true
}

func formatValidationErrors(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// ParamInt64 解析正整数路径参数，失败时已写出 400 响应
func ParamInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		Fail(c, errors.CodeInvalidParams, cerrors.Wrapf(ErrInvalidParam, "%s=%q", name, c.Param(name)).Error())
		return 0, false
	}
	return v, true
}

// GetQuery 获取查询参数，带默认值
func GetQuery(c *gin.Context, key, defaultValue string) string {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	return val
}
