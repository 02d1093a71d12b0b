package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// Tx 事务接口
type Tx interface {
	Executor
	// Commit 提交事务
	Commit(ctx context.Context) error
	// Rollback 回滚事务
	Rollback(ctx context.Context) error
}

// txWrapper 事务包装器
type txWrapper struct {
	tx      pgx.Tx
	timeout time.Duration
}

func (t *txWrapper) queryTimeout() time.Duration {
	return t.timeout
}

// Query 在事务内查询
func (t *txWrapper) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	return rows, nil
}

// Exec 在事务内执行写操作
func (t *txWrapper) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	result, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, errors.Wrap(err, "exec failed")
	}
	return result.RowsAffected(), nil
}

// Commit 提交事务
func (t *txWrapper) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Rollback 回滚事务
func (t *txWrapper) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return errors.Wrap(err, "failed to rollback transaction")
	}
	return nil
}

// TxIsolationLevel 事务隔离级别
type TxIsolationLevel string

const (
	TxIsolationLevelDefault        TxIsolationLevel = ""
	TxIsolationLevelReadCommitted  TxIsolationLevel = "read committed"
	TxIsolationLevelRepeatableRead TxIsolationLevel = "repeatable read"
	TxIsolationLevelSerializable   TxIsolationLevel = "serializable"
)

// TxAccessMode 事务访问模式
type TxAccessMode string

const (
	TxAccessModeDefault   TxAccessMode = ""
	TxAccessModeReadWrite TxAccessMode = "read write"
	TxAccessModeReadOnly  TxAccessMode = "read only"
)

// TxOptions 事务选项
type TxOptions struct {
	IsoLevel   TxIsolationLevel
	AccessMode TxAccessMode
}

// BeginTx 开启事务
func (c *Client) BeginTx(ctx context.Context) (Tx, error) {
	return c.BeginTxWithOptions(ctx, TxOptions{})
}

// BeginTxWithOptions 使用选项开启事务
func (c *Client) BeginTxWithOptions(ctx context.Context, opts TxOptions) (Tx, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	tx, err := c.getMaster().BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.TxIsoLevel(opts.IsoLevel),
		AccessMode: pgx.TxAccessMode(opts.AccessMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return &txWrapper{tx: tx, timeout: c.cfg.QueryTimeout}, nil
}

// WithTx 在事务中执行函数
func (c *Client) WithTx(ctx context.Context, fn func(Tx) error) error {
	return c.WithTxOptions(ctx, TxOptions{}, fn)
}

// WithTxOptions 使用选项在事务中执行函数，fn 返回错误或 panic 时回滚
func (c *Client) WithTxOptions(ctx context.Context, opts TxOptions, fn func(Tx) error) error {
	tx, err := c.BeginTxWithOptions(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.WithSecondaryError(err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}
