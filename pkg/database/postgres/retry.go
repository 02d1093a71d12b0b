package postgres

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// RetryNotify 每次冲突重试前回调，attempt 从 1 开始
type RetryNotify func(attempt uint, err error, wait time.Duration)

// IsRetryable 判断错误是否为可整体重试的事务冲突（序列化失败或死锁）
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

func newBackOff(cfg RetryConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	return b
}

// WithSerializableTx 以 SERIALIZABLE 隔离级别执行 fn。
// 遇到序列化失败或死锁时整个 fn 重新执行，退避参数取自 Config.Retry；
// 重试耗尽返回标记为 ErrTxConflict 的错误，其余错误原样返回。
func (c *Client) WithSerializableTx(ctx context.Context, fn func(Tx) error, notify RetryNotify) error {
	cfg := c.cfg.Retry
	var attempt uint

	op := func() (struct{}, error) {
		attempt++
		err := c.WithTxOptions(ctx, TxOptions{IsoLevel: TxIsolationLevelSerializable}, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if IsRetryable(err) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(newBackOff(cfg)),
		backoff.WithMaxTries(cfg.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if notify != nil {
				notify(attempt, err, wait)
			}
		}),
	)
	if err != nil && IsRetryable(err) {
		return errors.Mark(errors.Wrapf(err, "gave up after %d attempts", attempt), ErrTxConflict)
	}
	return err
}
