package postgres

import "github.com/cockroachdb/errors"

var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("postgres: config is nil")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("postgres: invalid config")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("postgres: client is closed")

	// ErrNoRows 没有查询到数据
	ErrNoRows = errors.New("postgres: no rows in result set")

	// ErrTxConflict 事务冲突重试耗尽
	ErrTxConflict = errors.New("postgres: transaction conflict, retries exhausted")
)
