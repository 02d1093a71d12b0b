package service

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
)

// 业务错误分类，使用 errors.Is 判断
var (
	// ErrValidation 输入不合法，未触及存储
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("not found")
	// ErrInsufficientResource ants 不足
	ErrInsufficientResource = errors.New("insufficient resource")
	// ErrPreconditionFailed 状态不满足（无存活食蚁兽、已死亡等）
	ErrPreconditionFailed = errors.New("precondition failed")
)

func validationError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

func notFoundError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

func insufficientError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInsufficientResource)
}

func preconditionError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrPreconditionFailed)
}

// mapMissing 将仓储的 ErrNotFound 转换为指定的业务错误，其余错误原样返回
func mapMissing(err error, kind error, format string, args ...interface{}) error {
	if isMissing(err) {
		return errors.Mark(errors.Newf(format, args...), kind)
	}
	return err
}

// isMissing 仓储记录不存在
func isMissing(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// IsClientError 是否为调用方可修正的业务错误
func IsClientError(err error) bool {
	return errors.IsAny(err, ErrValidation, ErrNotFound, ErrInsufficientResource, ErrPreconditionFailed)
}
