package service

import (
	"context"
	"strings"

	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/otel"
)

// AnteaterService 食蚁兽生命周期服务
type AnteaterService struct {
	logger  logger.Logger
	store   repository.Store
	metrics *metrics.EconomyMetrics
}

// NewAnteaterService 创建食蚁兽服务
func NewAnteaterService(l logger.Logger, store repository.Store, m *metrics.EconomyMetrics) *AnteaterService {
	return &AnteaterService{
		logger:  l.Named("service.anteater"),
		store:   store,
		metrics: m,
	}
}

// CreateAnteater 为用户创建满血食蚁兽，用户已有存活食蚁兽时失败
func (s *AnteaterService) CreateAnteater(ctx context.Context, uid int64, name string) (a *model.Anteater, err error) {
	ctx, span := otel.StartSpan(ctx, "anteater.Create", otel.Int64(otel.AttrUserID, uid))
	defer func() { otel.EndSpan(span, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name must not be blank")
	}

	err = s.store.WithinTx(ctx, "create_anteater", func(ctx context.Context, tx repository.Repos) error {
		if _, err := tx.LockUser(ctx, uid); err != nil {
			return mapMissing(err, ErrNotFound, "user %d not found", uid)
		}

		existing, err := tx.GetAliveAnteater(ctx, uid)
		if err == nil {
			return preconditionError("user %d already has an alive anteater %d", uid, existing.ID)
		}
		if !isMissing(err) {
			return err
		}

		a, err = tx.CreateAnteater(ctx, uid, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "anteater created", "uid", uid, "anteater_id", a.ID)
	return a, nil
}

// GetAnteater 获取食蚁兽（含已死亡）
func (s *AnteaterService) GetAnteater(ctx context.Context, id int64) (*model.Anteater, error) {
	a, err := s.store.GetAnteater(ctx, id)
	if err != nil {
		return nil, mapMissing(err, ErrNotFound, "anteater %d not found", id)
	}
	return a, nil
}

// ListAnteaters 列出用户全部食蚁兽，新建的在前
func (s *AnteaterService) ListAnteaters(ctx context.Context, uid int64) ([]*model.Anteater, error) {
	if _, err := s.store.GetUser(ctx, uid); err != nil {
		return nil, mapMissing(err, ErrNotFound, "user %d not found", uid)
	}
	return s.store.ListAnteaters(ctx, uid)
}

// MarkDead 将存活食蚁兽置为死亡，不可逆
func (s *AnteaterService) MarkDead(ctx context.Context, id int64) (a *model.Anteater, err error) {
	ctx, span := otel.StartSpan(ctx, "anteater.MarkDead", otel.Int64(otel.AttrAnteaterID, id))
	defer func() { otel.EndSpan(span, err) }()

	err = s.store.WithinTx(ctx, "mark_dead", func(ctx context.Context, tx repository.Repos) error {
		current, err := tx.GetAnteater(ctx, id)
		if err != nil {
			return mapMissing(err, ErrNotFound, "anteater %d not found", id)
		}

		// 按 用户 → 食蚁兽 的顺序加锁
		if _, err := tx.LockUser(ctx, current.UID); err != nil {
			return err
		}
		locked, err := tx.LockAnteater(ctx, id)
		if err != nil {
			return mapMissing(err, ErrNotFound, "anteater %d not found", id)
		}
		if locked.IsDead {
			return preconditionError("anteater %d is already dead", id)
		}

		if err := tx.UpdateAnteaterHealth(ctx, id, 0); err != nil {
			return err
		}
		locked.Health = 0
		locked.IsDead = true
		a = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDeath("mark_dead")
	s.logger.InfoContext(ctx, "anteater marked dead", "uid", a.UID, "anteater_id", id)
	return a, nil
}
