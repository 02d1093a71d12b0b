package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// Executor 语句执行器，Client 与 Tx 均实现，DAO 方法据此同时服务于事务内外
type Executor interface {
	// Query 执行查询，调用方负责关闭 rows
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// Exec 执行写操作，返回影响行数
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	queryTimeout() time.Duration
}

var (
	_ Executor = (*Client)(nil)
	_ Executor = (*txWrapper)(nil)
)

func (c *Client) queryTimeout() time.Duration {
	return c.cfg.QueryTimeout
}

// applyQueryTimeout 应用查询超时到 context
func applyQueryTimeout(ctx context.Context, e Executor) (context.Context, context.CancelFunc) {
	if d := e.queryTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}

// Query 在从库上执行查询（无从库时回落主库）
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	rows, err := c.getSlave().Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	return rows, nil
}

// Exec 在主库上执行写操作（INSERT/UPDATE/DELETE）
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}
	ctx, cancel := applyQueryTimeout(ctx, c)
	defer cancel()

	result, err := c.getMaster().Exec(ctx, sql, args...)
	if err != nil {
		return 0, errors.Wrap(err, "exec failed")
	}
	return result.RowsAffected(), nil
}

// QueryOne 查询单条记录，按 db 标签映射到 T；无结果返回 ErrNoRows
func QueryOne[T any](ctx context.Context, e Executor, sql string, args ...any) (*T, error) {
	ctx, cancel := applyQueryTimeout(ctx, e)
	defer cancel()

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, errors.Wrap(err, "scan row failed")
	}
	return item, nil
}

// QueryAll 查询多条记录
func QueryAll[T any](ctx context.Context, e Executor, sql string, args ...any) ([]*T, error) {
	ctx, cancel := applyQueryTimeout(ctx, e)
	defer cancel()

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[T])
	if err != nil {
		return nil, errors.Wrap(err, "scan rows failed")
	}
	return items, nil
}

// QueryScalar 查询单列单值，如 RETURNING id、COUNT(*)、EXISTS(...)
func QueryScalar[T any](ctx context.Context, e Executor, sql string, args ...any) (T, error) {
	ctx, cancel := applyQueryTimeout(ctx, e)
	defer cancel()

	var zero T
	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return zero, err
	}

	v, err := pgx.CollectOneRow(rows, pgx.RowTo[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, ErrNoRows
		}
		return zero, errors.Wrap(err, "scan scalar failed")
	}
	return v, nil
}
