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

var (
	ownershipColumns = []string{"id", "uid", "accessory_id", "anteater_id", "created_at"}

	ownedColumns = []string{
		"h.id", "h.uid", "h.accessory_id", "h.anteater_id", "h.created_at",
		"a.name", "a.price", "a.type", "a.image_url", "a.description",
	}
)

// OwnershipDAO 持有记录数据访问对象
type OwnershipDAO struct {
	logger  logger.Logger
	metrics *metrics.EconomyMetrics
}

// NewOwnershipDAO 创建持有记录 DAO
func NewOwnershipDAO(l logger.Logger, m *metrics.EconomyMetrics) *OwnershipDAO {
	return &OwnershipDAO{
		logger:  l.Named("dao.ownership"),
		metrics: m,
	}
}

func ownedQuery() squirrel.SelectBuilder {
	return postgres.QueryBuilder.
		Select(ownedColumns...).
		From(tableHasAccessory + " h").
		Join(tableAccessories + " a ON a.id = h.accessory_id")
}

// GetByID 获取持有记录，lock 为 true 时加行锁；不存在返回 nil
func (d *OwnershipDAO) GetByID(ctx context.Context, e postgres.Executor, id int64, lock bool) (o *model.Ownership, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "ownership.get", start, err) }()

	builder := postgres.QueryBuilder.
		Select(ownershipColumns...).
		From(tableHasAccessory).
		Where(squirrel.Eq{"id": id})
	if lock {
		builder = builder.Suffix(lockSuffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	o, err = queryOptional(postgres.QueryOne[model.Ownership](ctx, e, query, args...))
	if err != nil {
		d.logger.Error("failed to get ownership",
			"ownership_id", id,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to get ownership")
	}
	return o, nil
}

// GetOwned 获取持有记录与目录字段；不存在返回 nil
func (d *OwnershipDAO) GetOwned(ctx context.Context, e postgres.Executor, id int64) (o *model.OwnedAccessory, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "ownership.get_owned", start, err) }()

	query, args, err := ownedQuery().Where(squirrel.Eq{"h.id": id}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	o, err = queryOptional(postgres.QueryOne[model.OwnedAccessory](ctx, e, query, args...))
	if err != nil {
		d.logger.Error("failed to get owned accessory",
			"ownership_id", id,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to get owned accessory")
	}
	return o, nil
}

// ListByUID 列出用户全部持有记录
func (d *OwnershipDAO) ListByUID(ctx context.Context, e postgres.Executor, uid int64) ([]*model.OwnedAccessory, error) {
	return d.listOwned(ctx, e, "ownership.list", squirrel.Eq{"h.uid": uid})
}

// ListEquipped 列出装备在指定食蚁兽上的记录
func (d *OwnershipDAO) ListEquipped(ctx context.Context, e postgres.Executor, anteaterID int64) ([]*model.OwnedAccessory, error) {
	return d.listOwned(ctx, e, "ownership.list_equipped", squirrel.Eq{"h.anteater_id": anteaterID})
}

func (d *OwnershipDAO) listOwned(ctx context.Context, e postgres.Executor, op string, where squirrel.Eq) (list []*model.OwnedAccessory, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, op, start, err) }()

	query, args, err := ownedQuery().Where(where).OrderBy("h.id ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	list, err = postgres.QueryAll[model.OwnedAccessory](ctx, e, query, args...)
	if err != nil {
		d.logger.Error("failed to list owned accessories",
			"where", where,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to list owned accessories")
	}
	return list, nil
}

// Create 新增未装备的持有记录
func (d *OwnershipDAO) Create(ctx context.Context, e postgres.Executor, uid, accessoryID int64) (o *model.Ownership, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "ownership.create", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Insert(tableHasAccessory).
		Columns("uid", "accessory_id").
		Values(uid, accessoryID).
		Suffix("RETURNING id, uid, accessory_id, anteater_id, created_at").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	o, err = postgres.QueryOne[model.Ownership](ctx, e, query, args...)
	if err != nil {
		d.logger.Error("failed to create ownership",
			"uid", uid,
			"accessory_id", accessoryID,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to create ownership")
	}
	return o, nil
}

// SetAnteater 设置装备目标，anteaterID 为 nil 即卸下
func (d *OwnershipDAO) SetAnteater(ctx context.Context, e postgres.Executor, id int64, anteaterID *int64) (err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "ownership.set_anteater", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Update(tableHasAccessory).
		Set("anteater_id", anteaterID).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build query")
	}

	affected, err := e.Exec(ctx, query, args...)
	if err != nil {
		d.logger.Error("failed to set ownership anteater",
			"ownership_id", id,
			"error", err,
		)
		return errors.Wrap(err, "failed to set ownership anteater")
	}
	if affected == 0 {
		return errors.Wrapf(postgres.ErrNoRows, "ownership %d", id)
	}
	return nil
}

// UnequipType 卸下该食蚁兽上同类型的其他记录，返回卸下数量
func (d *OwnershipDAO) UnequipType(ctx context.Context, e postgres.Executor, anteaterID int64, accessoryType string, exceptID int64) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "ownership.unequip_type", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Update(tableHasAccessory).
		Set("anteater_id", nil).
		Where(squirrel.Eq{"anteater_id": anteaterID}).
		Where(squirrel.NotEq{"id": exceptID}).
		Where(squirrel.Expr("accessory_id IN (SELECT id FROM "+tableAccessories+" WHERE type = ?)", accessoryType)).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "failed to build query")
	}

	n, err = e.Exec(ctx, query, args...)
	if err != nil {
		d.logger.Error("failed to unequip same type",
			"anteater_id", anteaterID,
			"type", accessoryType,
			"error", err,
		)
		return 0, errors.Wrap(err, "failed to unequip same type")
	}
	return n, nil
}

// Delete 删除单条记录，返回是否存在
func (d *OwnershipDAO) Delete(ctx context.Context, e postgres.Executor, id int64) (deleted bool, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "ownership.delete", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Delete(tableHasAccessory).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "failed to build query")
	}

	n, err := e.Exec(ctx, query, args...)
	if err != nil {
		d.logger.Error("failed to delete ownership",
			"ownership_id", id,
			"error", err,
		)
		return false, errors.Wrap(err, "failed to delete ownership")
	}
	return n > 0, nil
}

// DeleteByUID 清空用户全部持有记录，返回删除数量
func (d *OwnershipDAO) DeleteByUID(ctx context.Context, e postgres.Executor, uid int64) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "ownership.delete_by_uid", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Delete(tableHasAccessory).
		Where(squirrel.Eq{"uid": uid}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "failed to build query")
	}

	n, err = e.Exec(ctx, query, args...)
	if err != nil {
		d.logger.Error("failed to clear inventory",
			"uid", uid,
			"error", err,
		)
		return 0, errors.Wrap(err, "failed to clear inventory")
	}
	return n, nil
}
