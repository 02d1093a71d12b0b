package repository

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/conversion"
	"github.com/lk2023060901/pocketzot/app/economy/internal/dao"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/otel"
)

// DAOs 仓储依赖的全部 DAO
type DAOs struct {
	User      *dao.UserDAO
	Anteater  *dao.AnteaterDAO
	Accessory *dao.AccessoryDAO
	Ownership *dao.OwnershipDAO
}

// NewDAOs 组装 DAO 集合
func NewDAOs(user *dao.UserDAO, anteater *dao.AnteaterDAO, accessory *dao.AccessoryDAO, ownership *dao.OwnershipDAO) *DAOs {
	return &DAOs{
		User:      user,
		Anteater:  anteater,
		Accessory: accessory,
		Ownership: ownership,
	}
}

// pgRepos 绑定到某个执行器（连接池或事务）的仓储实现
type pgRepos struct {
	e    postgres.Executor
	daos *DAOs
}

// notFound 将 DAO 的 nil 结果转换为 ErrNotFound
func notFound[T any](item *T, err error, format string, args ...interface{}) (*T, error) {
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.Wrapf(ErrNotFound, format, args...)
	}
	return item, nil
}

// affected 将 DAO 的 ErrNoRows 转换为 ErrNotFound
func affected(err error) error {
	if errors.Is(err, postgres.ErrNoRows) {
		return errors.Mark(err, ErrNotFound)
	}
	return err
}

func (r *pgRepos) ListUsers(ctx context.Context) ([]*model.User, error) {
	return r.daos.User.List(ctx, r.e)
}

func (r *pgRepos) GetUser(ctx context.Context, uid int64) (*model.User, error) {
	u, err := r.daos.User.GetByID(ctx, r.e, uid, false)
	return notFound(u, err, "user %d", uid)
}

func (r *pgRepos) LockUser(ctx context.Context, uid int64) (*model.User, error) {
	u, err := r.daos.User.GetByID(ctx, r.e, uid, true)
	return notFound(u, err, "user %d", uid)
}

func (r *pgRepos) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := r.daos.User.GetByEmail(ctx, r.e, email)
	return notFound(u, err, "user %q", email)
}

func (r *pgRepos) UpsertUser(ctx context.Context, name, email string) (*model.User, error) {
	return r.daos.User.Upsert(ctx, r.e, name, email)
}

func (r *pgRepos) UpdateUserAnts(ctx context.Context, uid, ants int64) error {
	return affected(r.daos.User.UpdateAnts(ctx, r.e, uid, ants))
}

func (r *pgRepos) GetAnteater(ctx context.Context, id int64) (*model.Anteater, error) {
	a, err := r.daos.Anteater.GetByID(ctx, r.e, id, false)
	return notFound(a, err, "anteater %d", id)
}

func (r *pgRepos) LockAnteater(ctx context.Context, id int64) (*model.Anteater, error) {
	a, err := r.daos.Anteater.GetByID(ctx, r.e, id, true)
	return notFound(a, err, "anteater %d", id)
}

func (r *pgRepos) GetAliveAnteater(ctx context.Context, uid int64) (*model.Anteater, error) {
	a, err := r.daos.Anteater.GetAliveByUID(ctx, r.e, uid, false)
	return notFound(a, err, "alive anteater of user %d", uid)
}

func (r *pgRepos) LockAliveAnteater(ctx context.Context, uid int64) (*model.Anteater, error) {
	a, err := r.daos.Anteater.GetAliveByUID(ctx, r.e, uid, true)
	return notFound(a, err, "alive anteater of user %d", uid)
}

func (r *pgRepos) ListAnteaters(ctx context.Context, uid int64) ([]*model.Anteater, error) {
	return r.daos.Anteater.ListByUID(ctx, r.e, uid)
}

func (r *pgRepos) CreateAnteater(ctx context.Context, uid int64, name string) (*model.Anteater, error) {
	return r.daos.Anteater.Create(ctx, r.e, uid, name, conversion.MaxHealth)
}

func (r *pgRepos) UpdateAnteaterHealth(ctx context.Context, id, health int64) error {
	return affected(r.daos.Anteater.UpdateHealth(ctx, r.e, id, health))
}

func (r *pgRepos) ListAccessories(ctx context.Context) ([]*model.Accessory, error) {
	return r.daos.Accessory.List(ctx, r.e)
}

func (r *pgRepos) GetAccessory(ctx context.Context, id int64) (*model.Accessory, error) {
	a, err := r.daos.Accessory.GetByID(ctx, r.e, id)
	return notFound(a, err, "accessory %d", id)
}

func (r *pgRepos) GetAccessoryByName(ctx context.Context, name string) (*model.Accessory, error) {
	a, err := r.daos.Accessory.GetByName(ctx, r.e, name)
	return notFound(a, err, "accessory %q", name)
}

func (r *pgRepos) UpdateAccessoryPrice(ctx context.Context, id, price int64) error {
	return affected(r.daos.Accessory.UpdatePrice(ctx, r.e, id, price))
}

func (r *pgRepos) UpsertAccessory(ctx context.Context, a *model.Accessory) (*model.Accessory, error) {
	return r.daos.Accessory.UpsertByName(ctx, r.e, a)
}

func (r *pgRepos) GetOwnership(ctx context.Context, id int64) (*model.Ownership, error) {
	o, err := r.daos.Ownership.GetByID(ctx, r.e, id, false)
	return notFound(o, err, "ownership %d", id)
}

func (r *pgRepos) LockOwnership(ctx context.Context, id int64) (*model.Ownership, error) {
	o, err := r.daos.Ownership.GetByID(ctx, r.e, id, true)
	return notFound(o, err, "ownership %d", id)
}

func (r *pgRepos) GetOwnedAccessory(ctx context.Context, id int64) (*model.OwnedAccessory, error) {
	o, err := r.daos.Ownership.GetOwned(ctx, r.e, id)
	return notFound(o, err, "ownership %d", id)
}

func (r *pgRepos) ListInventory(ctx context.Context, uid int64) ([]*model.OwnedAccessory, error) {
	return r.daos.Ownership.ListByUID(ctx, r.e, uid)
}

func (r *pgRepos) ListEquipped(ctx context.Context, anteaterID int64) ([]*model.OwnedAccessory, error) {
	return r.daos.Ownership.ListEquipped(ctx, r.e, anteaterID)
}

func (r *pgRepos) CreateOwnership(ctx context.Context, uid, accessoryID int64) (*model.Ownership, error) {
	return r.daos.Ownership.Create(ctx, r.e, uid, accessoryID)
}

func (r *pgRepos) SetOwnershipAnteater(ctx context.Context, id int64, anteaterID *int64) error {
	return affected(r.daos.Ownership.SetAnteater(ctx, r.e, id, anteaterID))
}

func (r *pgRepos) UnequipType(ctx context.Context, anteaterID int64, accessoryType string, exceptID int64) (int64, error) {
	return r.daos.Ownership.UnequipType(ctx, r.e, anteaterID, accessoryType, exceptID)
}

func (r *pgRepos) DeleteOwnership(ctx context.Context, id int64) error {
	deleted, err := r.daos.Ownership.Delete(ctx, r.e, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.Wrapf(ErrNotFound, "ownership %d", id)
	}
	return nil
}

func (r *pgRepos) ClearInventory(ctx context.Context, uid int64) (int64, error) {
	return r.daos.Ownership.DeleteByUID(ctx, r.e, uid)
}

// PostgresStore 基于 PostgreSQL 的 Store
type PostgresStore struct {
	pgRepos
	db      *postgres.Client
	logger  logger.Logger
	metrics *metrics.EconomyMetrics
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore 创建 PostgreSQL 仓储
func NewPostgresStore(db *postgres.Client, daos *DAOs, l logger.Logger, m *metrics.EconomyMetrics) *PostgresStore {
	return &PostgresStore{
		pgRepos: pgRepos{e: db, daos: daos},
		db:      db,
		logger:  l.Named("repository.store"),
		metrics: m,
	}
}

// WithinTx 在可序列化事务中执行 fn，冲突重试由 postgres 客户端负责
func (s *PostgresStore) WithinTx(ctx context.Context, op string, fn func(ctx context.Context, tx Repos) error) (err error) {
	ctx, span := otel.StartSpan(ctx, "tx."+op)
	defer func() { otel.EndSpan(span, err) }()

	attempts := 1
	err = s.db.WithSerializableTx(ctx, func(tx postgres.Tx) error {
		return fn(ctx, &pgRepos{e: tx, daos: s.daos})
	}, func(attempt uint, retryErr error, wait time.Duration) {
		attempts = int(attempt) + 1
		s.metrics.RecordTxRetry(op)
		s.logger.WarnContext(ctx, "transaction conflict, retrying",
			"operation", op,
			"attempt", attempt,
			"wait", wait,
			"error", retryErr,
		)
	})
	span.SetAttributes(otel.Int(otel.AttrAttempt, attempts))

	if errors.Is(err, postgres.ErrTxConflict) {
		s.metrics.RecordTxConflict(op)
		s.logger.ErrorContext(ctx, "transaction retries exhausted",
			"operation", op,
			"attempts", attempts,
			"error", err,
		)
	}
	return err
}

// Ping 检查数据库连通性
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
