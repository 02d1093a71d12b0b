package dao

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/lk2023060901/pocketzot/pkg/logger"
)

var anteaterColumns = []string{"id", "uid", "name", "health", "is_dead", "created_at"}

// AnteaterDAO 食蚁兽数据访问对象
type AnteaterDAO struct {
	logger  logger.Logger
	metrics *metrics.EconomyMetrics
}

// NewAnteaterDAO 创建食蚁兽 DAO
func NewAnteaterDAO(l logger.Logger, m *metrics.EconomyMetrics) *AnteaterDAO {
	return &AnteaterDAO{
		logger:  l.Named("dao.anteater"),
		metrics: m,
	}
}

// GetByID 根据 ID 获取食蚁兽（含已死亡）；不存在返回 nil
func (d *AnteaterDAO) GetByID(ctx context.Context, e postgres.Executor, id int64, lock bool) (a *model.Anteater, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "anteater.get", start, err) }()

	builder := postgres.QueryBuilder.
		Select(anteaterColumns...).
		From(tableAnteaters).
		Where(squirrel.Eq{"id": id})
	if lock {
		builder = builder.Suffix(lockSuffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	a, err = queryOptional(postgres.QueryOne[model.Anteater](ctx, e, query, args...))
	if err != nil {
		d.logger.Error("failed to get anteater",
			"anteater_id", id,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to get anteater")
	}
	return a, nil
}

// GetAliveByUID 获取用户当前存活的食蚁兽；没有返回 nil
func (d *AnteaterDAO) GetAliveByUID(ctx context.Context, e postgres.Executor, uid int64, lock bool) (a *model.Anteater, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "anteater.get_alive", start, err) }()

	builder := postgres.QueryBuilder.
		Select(anteaterColumns...).
		From(tableAnteaters).
		Where(squirrel.Eq{"uid": uid, "is_dead": false}).
		OrderBy("id DESC").
		Limit(1)
	if lock {
		builder = builder.Suffix(lockSuffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	a, err = queryOptional(postgres.QueryOne[model.Anteater](ctx, e, query, args...))
	if err != nil {
		d.logger.Error("failed to get alive anteater",
			"uid", uid,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to get alive anteater")
	}
	return a, nil
}

// ListByUID 列出用户全部食蚁兽，新建的在前
func (d *AnteaterDAO) ListByUID(ctx context.Context, e postgres.Executor, uid int64) (list []*model.Anteater, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "anteater.list", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Select(anteaterColumns...).
		From(tableAnteaters).
		Where(squirrel.Eq{"uid": uid}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	list, err = postgres.QueryAll[model.Anteater](ctx, e, query, args...)
	if err != nil {
		d.logger.Error("failed to list anteaters",
			"uid", uid,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to list anteaters")
	}
	return list, nil
}

// Create 创建满血食蚁兽
func (d *AnteaterDAO) Create(ctx context.Context, e postgres.Executor, uid int64, name string, health int64) (a *model.Anteater, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "anteater.create", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Insert(tableAnteaters).
		Columns("uid", "name", "health", "is_dead").
		Values(uid, name, health, false).
		Suffix("RETURNING id, uid, name, health, is_dead, created_at").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	a, err = postgres.QueryOne[model.Anteater](ctx, e, query, args...)
	if err != nil {
		d.logger.Error("failed to create anteater",
			"uid", uid,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to create anteater")
	}
	return a, nil
}

// UpdateHealth 写入 health，is_dead 在同一语句中由 health 推导
func (d *AnteaterDAO) UpdateHealth(ctx context.Context, e postgres.Executor, id, health int64) (err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "anteater.update_health", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Update(tableAnteaters).
		Set("health", health).
		Set("is_dead", health == 0).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build query")
	}

	affected, err := e.Exec(ctx, query, args...)
	if err != nil {
		d.logger.Error("failed to update anteater health",
			"anteater_id", id,
			"health", health,
			"error", err,
		)
		return errors.Wrap(err, "failed to update anteater health")
	}
	if affected == 0 {
		return errors.Wrapf(postgres.ErrNoRows, "anteater %d", id)
	}
	return nil
}
