package redis

import "github.com/cockroachdb/errors"

var (
	ErrNilConfig = errors.New("redis config is nil")

	// ErrInvalidConfig standalone 与 master 必须且只能配置一个
	ErrInvalidConfig = errors.New("invalid redis config: must specify exactly one of standalone or master")

	// ErrNil 键不存在
	ErrNil = errors.New("redis: nil")

	ErrInvalidSlaveLoadBalance = errors.New("invalid slave load balance strategy: must be 'random' or 'round_robin'")
)
