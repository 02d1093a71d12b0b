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

var userColumns = []string{"id", "name", "email", "ants", "created_at"}

// UserDAO 用户数据访问对象
type UserDAO struct {
	logger  logger.Logger
	metrics *metrics.EconomyMetrics
}

// NewUserDAO 创建用户 DAO
func NewUserDAO(l logger.Logger, m *metrics.EconomyMetrics) *UserDAO {
	return &UserDAO{
		logger:  l.Named("dao.user"),
		metrics: m,
	}
}

// List 按 id 升序列出所有用户
func (d *UserDAO) List(ctx context.Context, e postgres.Executor) (users []*model.User, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "user.list", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Select(userColumns...).
		From(tableUsers).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	users, err = postgres.QueryAll[model.User](ctx, e, query, args...)
	if err != nil {
		d.logger.Error("failed to list users", "error", err)
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

// GetByID 根据 ID 获取用户，lock 为 true 时加行锁；不存在返回 nil
func (d *UserDAO) GetByID(ctx context.Context, e postgres.Executor, id int64, lock bool) (user *model.User, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "user.get", start, err) }()

	builder := postgres.QueryBuilder.
		Select(userColumns...).
		From(tableUsers).
		Where(squirrel.Eq{"id": id})
	if lock {
		builder = builder.Suffix(lockSuffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	user, err = queryOptional(postgres.QueryOne[model.User](ctx, e, query, args...))
	if err != nil {
		d.logger.Error("failed to get user",
			"uid", id,
			"lock", lock,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to get user")
	}
	return user, nil
}

// GetByEmail 根据 email 获取用户；不存在返回 nil
func (d *UserDAO) GetByEmail(ctx context.Context, e postgres.Executor, email string) (user *model.User, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "user.get_by_email", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Select(userColumns...).
		From(tableUsers).
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	user, err = queryOptional(postgres.QueryOne[model.User](ctx, e, query, args...))
	if err != nil {
		d.logger.Error("failed to get user by email",
			"email", email,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to get user by email")
	}
	return user, nil
}

// Upsert 按 email 插入或更新名称，ants 保持不变
func (d *UserDAO) Upsert(ctx context.Context, e postgres.Executor, name, email string) (user *model.User, err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "user.upsert", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Insert(tableUsers).
		Columns("name", "email").
		Values(name, email).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name RETURNING id, name, email, ants, created_at").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	user, err = postgres.QueryOne[model.User](ctx, e, query, args...)
	if err != nil {
		d.logger.Error("failed to upsert user",
			"email", email,
			"error", err,
		)
		return nil, errors.Wrap(err, "failed to upsert user")
	}
	return user, nil
}

// UpdateAnts 写入 ants
func (d *UserDAO) UpdateAnts(ctx context.Context, e postgres.Executor, id, ants int64) (err error) {
	start := time.Now()
	defer func() { recordQuery(d.metrics, "user.update_ants", start, err) }()

	query, args, err := postgres.QueryBuilder.
		Update(tableUsers).
		Set("ants", ants).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build query")
	}

	affected, err := e.Exec(ctx, query, args...)
	if err != nil {
		d.logger.Error("failed to update ants",
			"uid", id,
			"ants", ants,
			"error", err,
		)
		return errors.Wrap(err, "failed to update ants")
	}
	if affected == 0 {
		return errors.Wrapf(postgres.ErrNoRows, "user %d", id)
	}
	return nil
}
