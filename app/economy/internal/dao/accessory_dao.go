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

var accessoryColumns = []string{"id", "name", "price", "type", "image_url", "description"}

// AccessoryDAO 商品目录数据访问对象
type AccessoryDAO struct {
	logger  logger.Logger
	metrics *metrics.EconomyMetrics
}

// NewAccessoryDAO 创建商品目录 DAO
func NewAccessoryDAO(l logger.Logger, m *metrics.EconomyMetrics) *AccessoryDAO {
	return &AccessoryDAO{
		logger:  l.Named("dao.accessory"),
		metrics: m,
	}
}

// List 按 id 升序列出目录
func (d *AccessoryDAO) List(ctx context.Context, e postgres.Executor) (list []*model.Accessory, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "accessory.list", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Select(accessoryColumns...).
		From(tableAccessories).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	list, err = postgres.QueryAll[model.Accessory](ctx, e, query, args...)
	if err != nil {
		d.logger.Error("failed to list accessories", "error", err)
		return nil, errors.Wrap(err, "failed to list accessories")
	}
	return list, nil
}

// GetByID 根据 ID 获取；不存在返回 nil
func (d *AccessoryDAO) GetByID(ctx context.Context, e postgres.Executor, id int64) (a *model.Accessory, err error) {
	return d.getOne(ctx, e, "accessory.get", squirrel.Eq{"id": id})
}

// GetByName 根据名称获取；不存在返回 nil
func (d *AccessoryDAO) GetByName(ctx context.Context, e postgres.Executor, name string) (a *model.Accessory, err error) {
	return d.getOne(ctx, e, "accessory.get_by_name", squirrel.Eq{"name": name})
}

func (d *AccessoryDAO) getOne(ctx context.Context, e postgres.Executor, op string, where squirrel.Eq) (a *model.Accessory, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, op, start, err) }()

	query, args, err := postgres.QueryBuilder.
		Select(accessoryColumns...).
		From(tableAccessories).
		Where(where).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	a, err = queryOptional(postgres.QueryOne[model.Accessory](ctx, e, query, args...))
	if err != nil {
		d.logger.Error("failed to get accessory",
			"where", where,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to get accessory")
	}
	return a, nil
}

// UpdatePrice 修改价格
func (d *AccessoryDAO) UpdatePrice(ctx context.Context, e postgres.Executor, id, price int64) (err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "accessory.update_price", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Update(tableAccessories).
		Set("price", price).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build query")
	}

	affected, err := e.Exec(ctx, query, args...)
	if err != nil {
		d.logger.Error("failed to update price",
			"accessory_id", id,
			"price", price,
			"error", err,
		)
		return errors.Wrap(err, "failed to update price")
	}
	if affected == 0 {
		return errors.Wrapf(postgres.ErrNoRows, "accessory %d", id)
	}
	return nil
}

// UpsertByName 按名称插入或覆盖目录条目
func (d *AccessoryDAO) UpsertByName(ctx context.Context, e postgres.Executor, a *model.Accessory) (out *model.Accessory, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "accessory.upsert", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Insert(tableAccessories).
		Columns("name", "price", "type", "image_url", "description").
		Values(a.Name, a.Price, a.Type, a.ImageURL, a.Description).
		Suffix(`ON CONFLICT (name) DO UPDATE SET
			price = EXCLUDED.price,
			type = EXCLUDED.type,
			image_url = EXCLUDED.image_url,
			description = EXCLUDED.description
			RETURNING id, name, price, type, image_url, description`).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	out, err = postgres.QueryOne[model.Accessory](ctx, e, query, args...)
	if err != nil {
		d.logger.Error("failed to upsert accessory",
			"name", a.Name,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to upsert accessory")
	}
	return out, nil
}
