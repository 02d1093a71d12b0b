package service

import (
	"context"

	"github.com/lk2023060901/pocketzot/app/economy/internal/conversion"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/otel"
)

const (
	adapterHealthEdit = "health_edit"
	adapterAntStep    = "ant_step"
)

// EconomyService 资源换算服务（health-edit、ant-step、ants 消费）
type EconomyService struct {
	logger  logger.Logger
	store   repository.Store
	metrics *metrics.EconomyMetrics
}

// NewEconomyService 创建资源换算服务
func NewEconomyService(l logger.Logger, store repository.Store, m *metrics.EconomyMetrics) *EconomyService {
	return &EconomyService{
		logger:  l.Named("service.economy"),
		store:   store,
		metrics: m,
	}
}

// GetPool 读取用户资源池
func (s *EconomyService) GetPool(ctx context.Context, uid int64) (ps *model.PoolState, err error) {
	ctx, span := otel.StartSpan(ctx, "economy.GetPool", otel.Int64(otel.AttrUserID, uid))
	defer func() { otel.EndSpan(span, err) }()

	u, err := s.store.GetUser(ctx, uid)
	if err != nil {
		return nil, mapMissing(err, ErrNotFound, "user %d not found", uid)
	}

	a, err := s.store.GetAliveAnteater(ctx, uid)
	if err != nil {
		if isMissing(err) {
			return model.NewPoolState(u, nil), nil
		}
		return nil, err
	}
	return model.NewPoolState(u, a), nil
}

// ApplyHealthEdit 按 health-edit 调整资源池，要求存在存活食蚁兽
func (s *EconomyService) ApplyHealthEdit(ctx context.Context, uid, delta int64) (ps *model.PoolState, err error) {
	ctx, span := otel.StartSpan(ctx, "economy.ApplyHealthEdit",
		otel.Int64(otel.AttrUserID, uid),
		otel.Int64(otel.AttrDelta, delta),
	)
	defer func() { otel.EndSpan(span, err) }()

	units, err := conversion.HealthEditDelta(delta)
	if err != nil {
		s.metrics.RecordConversion(adapterHealthEdit, false)
		return nil, validationError("delta %d is not allowed, must be one of %v", delta, conversion.HealthDeltas())
	}

	ps, err = s.apply(ctx, adapterHealthEdit, uid, units, true)
	s.metrics.RecordConversion(adapterHealthEdit, err == nil)
	return ps, err
}

// ApplyAntStep 按 ant-step 调整资源池；无存活食蚁兽时只换算 ants
func (s *EconomyService) ApplyAntStep(ctx context.Context, uid, step int64) (ps *model.PoolState, err error) {
	ctx, span := otel.StartSpan(ctx, "economy.ApplyAntStep",
		otel.Int64(otel.AttrUserID, uid),
		otel.Int64(otel.AttrDelta, step),
	)
	defer func() { otel.EndSpan(span, err) }()

	units, err := conversion.AntStepDelta(step)
	if err != nil {
		s.metrics.RecordConversion(adapterAntStep, false)
		return nil, validationError("step %d is not allowed, must be one of %v", step, conversion.AntSteps())
	}

	ps, err = s.apply(ctx, adapterAntStep, uid, units, false)
	s.metrics.RecordConversion(adapterAntStep, err == nil)
	return ps, err
}

// apply 在事务内锁定用户与存活食蚁兽后换算并写回
func (s *EconomyService) apply(ctx context.Context, op string, uid, units int64, requireAnteater bool) (*model.PoolState, error) {
	var (
		ps     *model.PoolState
		killed bool
	)

	err := s.store.WithinTx(ctx, op, func(ctx context.Context, tx repository.Repos) error {
		killed = false

		// 1. 锁用户
		u, err := tx.LockUser(ctx, uid)
		if err != nil {
			return mapMissing(err, ErrNotFound, "user %d not found", uid)
		}

		// 2. 锁存活食蚁兽
		a, err := tx.LockAliveAnteater(ctx, uid)
		if err != nil {
			if !isMissing(err) {
				return err
			}
			if requireAnteater {
				return preconditionError("user %d has no alive anteater", uid)
			}
			a = nil
		}

		// 3. 换算
		if a == nil {
			next := conversion.Convert(conversion.VirtualPool(u.Ants), units)
			if err := tx.UpdateUserAnts(ctx, uid, next.Ants); err != nil {
				return err
			}
			u.Ants = next.Ants
			ps = model.NewPoolState(u, nil)
			return nil
		}

		next := conversion.Convert(conversion.Pool{Health: a.Health, Ants: u.Ants}, units)

		// 4. 写回
		if err := tx.UpdateUserAnts(ctx, uid, next.Ants); err != nil {
			return err
		}
		if err := tx.UpdateAnteaterHealth(ctx, a.ID, next.Health); err != nil {
			return err
		}

		u.Ants = next.Ants
		a.Health = next.Health
		a.IsDead = next.IsDead()
		killed = a.IsDead
		ps = model.NewPoolState(u, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if killed {
		s.metrics.RecordDeath("damage")
		s.logger.InfoContext(ctx, "anteater died",
			"uid", uid,
			"anteater_id", *ps.AnteaterID,
			"operation", op,
		)
	}
	s.logger.DebugContext(ctx, "resource converted",
		"uid", uid,
		"operation", op,
		"units", units,
		"ants", ps.Ants,
		"health", ps.Health,
	)
	return ps, nil
}

// SpendAnts 直接扣减 ants，amount 不能为负且不能超过余额
func (s *EconomyService) SpendAnts(ctx context.Context, uid, amount int64) (ps *model.PoolState, err error) {
	ctx, span := otel.StartSpan(ctx, "economy.SpendAnts",
		otel.Int64(otel.AttrUserID, uid),
		otel.Int64(otel.AttrDelta, amount),
	)
	defer func() { otel.EndSpan(span, err) }()

	if amount < 0 {
		return nil, validationError("amount must be non-negative, got %d", amount)
	}

	err = s.store.WithinTx(ctx, "spend_ants", func(ctx context.Context, tx repository.Repos) error {
		u, err := tx.LockUser(ctx, uid)
		if err != nil {
			return mapMissing(err, ErrNotFound, "user %d not found", uid)
		}
		if u.Ants < amount {
			return insufficientError("not enough ants: have %d, need %d", u.Ants, amount)
		}

		u.Ants -= amount
		if err := tx.UpdateUserAnts(ctx, uid, u.Ants); err != nil {
			return err
		}

		a, err := tx.GetAliveAnteater(ctx, uid)
		if err != nil && !isMissing(err) {
			return err
		}
		ps = model.NewPoolState(u, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAntsSpent(amount)
	return ps, nil
}
