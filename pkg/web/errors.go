package web

import "github.com/cockroachdb/errors"

var (
	// ErrServerAlreadyStarted Start 只能调用一次
	ErrServerAlreadyStarted = errors.New("web: server already started")

	// ErrInvalidParam 路径参数无法解析
	ErrInvalidParam = errors.New("web: invalid path parameter")
)
