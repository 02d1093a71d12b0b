// Package dao 按表封装 SQL。每个方法接收 postgres.Executor，
// 传入 *postgres.Client 时直接执行，传入 postgres.Tx 时在事务内执行。
package dao

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
)

const (
	tableUsers        = "users"
	tableAnteaters    = "anteater"
	tableAccessories  = "accessories"
	tableHasAccessory = "has_accessory"

	lockSuffix = "FOR UPDATE"
)

// recordQuery 记录查询耗时与结果
func recordQuery(m *metrics.EconomyMetrics, op string, start time.Time, err error) {
	m.RecordDBQuery(op, err == nil, time.Since(start).Seconds())
}

// queryOptional 查询单行，无结果时返回 nil, nil
func queryOptional[T any](item *T, err error) (*T, error) {
	if errors.Is(err, postgres.ErrNoRows) {
		return nil, nil
	}
	return item, err
}
