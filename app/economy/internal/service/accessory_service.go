package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/dao"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/migrations"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/lk2023060901/pocketzot/pkg/otel"
)

// AccessoryService 商品目录、购买与装备服务
type AccessoryService struct {
	logger  logger.Logger
	store   repository.Store
	cache   *dao.CatalogCacheDAO
	metrics *metrics.EconomyMetrics
}

// NewAccessoryService 创建装备服务
func NewAccessoryService(l logger.Logger, store repository.Store, cache *dao.CatalogCacheDAO, m *metrics.EconomyMetrics) *AccessoryService {
	return &AccessoryService{
		logger:  l.Named("service.accessory"),
		store:   store,
		cache:   cache,
		metrics: m,
	}
}

// ===== 商品目录 =====

// ListAccessories 按 id 列出目录，优先读缓存
func (s *AccessoryService) ListAccessories(ctx context.Context) ([]*model.Accessory, error) {
	list, err := s.cache.GetList(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog cache unavailable, falling back to database", "error", err)
	}
	if list != nil {
		return list, nil
	}

	list, err = s.store.ListAccessories(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetList(ctx, list); err != nil {
		s.logger.WarnContext(ctx, "failed to fill catalog cache", "error", err)
	}
	return list, nil
}

// GetAccessory 获取单个目录条目
func (s *AccessoryService) GetAccessory(ctx context.Context, id int64) (*model.Accessory, error) {
	a, err := s.cache.GetItem(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog cache unavailable, falling back to database", "error", err)
	}
	if a != nil {
		return a, nil
	}

	a, err = s.store.GetAccessory(ctx, id)
	if err != nil {
		return nil, mapMissing(err, ErrNotFound, "accessory %d not found", id)
	}
	return a, nil
}

// RevisePrice 修改价格，ref 为 id 或名称；成功后使缓存失效
func (s *AccessoryService) RevisePrice(ctx context.Context, ref string, price int64) (a *model.Accessory, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, validationError("accessory id or name is required")
	}
	if price < 0 {
		return nil, validationError("price must be non-negative, got %d", price)
	}

	err = s.store.WithinTx(ctx, "revise_price", func(ctx context.Context, tx repository.Repos) error {
		var err error
		if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
			a, err = tx.GetAccessory(ctx, id)
		} else {
			a, err = tx.GetAccessoryByName(ctx, ref)
		}
		if err != nil {
			return mapMissing(err, ErrNotFound, "accessory %q not found", ref)
		}

		if err := tx.UpdateAccessoryPrice(ctx, a.ID, price); err != nil {
			return err
		}
		a.Price = price
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "accessory price revised", "accessory_id", a.ID, "name", a.Name, "price", price)
	return a, nil
}

// SeedCatalog 写入（或覆盖）初始目录
func (s *AccessoryService) SeedCatalog(ctx context.Context) ([]*model.Accessory, error) {
	var out []*model.Accessory
	err := s.store.WithinTx(ctx, "seed_catalog", func(ctx context.Context, tx repository.Repos) error {
		out = out[:0]
		for _, seed := range migrations.SeedCatalog() {
			seed := seed
			a, err := tx.UpsertAccessory(ctx, &seed)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return out, nil
}

func (s *AccessoryService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate catalog cache", "error", err)
	}
}

// ===== 购买 =====

// Purchase 扣减价格并新增未装备的持有记录，两者在同一事务中完成
func (s *AccessoryService) Purchase(ctx context.Context, uid, accessoryID int64) (owned *model.OwnedAccessory, err error) {
	ctx, span := otel.StartSpan(ctx, "accessory.Purchase",
		otel.Int64(otel.AttrUserID, uid),
		otel.Int64(otel.AttrAccessoryID, accessoryID),
	)
	defer func() { otel.EndSpan(span, err) }()

	var price int64
	err = s.store.WithinTx(ctx, "purchase", func(ctx context.Context, tx repository.Repos) error {
		// 1. 锁用户
		u, err := tx.LockUser(ctx, uid)
		if err != nil {
			return mapMissing(err, ErrNotFound, "user %d not found", uid)
		}

		// 2. 以库中价格为准
		a, err := tx.GetAccessory(ctx, accessoryID)
		if err != nil {
			return mapMissing(err, ErrNotFound, "accessory %d not found", accessoryID)
		}
		if u.Ants < a.Price {
			return insufficientError("not enough ants to buy %s: have %d, need %d", a.Name, u.Ants, a.Price)
		}

		// 3. 扣款并发放
		if err := tx.UpdateUserAnts(ctx, uid, u.Ants-a.Price); err != nil {
			return err
		}
		o, err := tx.CreateOwnership(ctx, uid, a.ID)
		if err != nil {
			return err
		}

		price = a.Price
		owned = model.NewOwnedAccessory(o, a)
		return nil
	})
	if err != nil {
		s.metrics.RecordPurchase(purchaseOutcome(err))
		return nil, err
	}

	s.metrics.RecordPurchase("success")
	s.metrics.RecordAntsSpent(price)
	s.logger.InfoContext(ctx, "accessory purchased",
		"uid", uid,
		"accessory_id", accessoryID,
		"ownership_id", owned.ID,
		"price", price,
	)
	return owned, nil
}

func purchaseOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientResource):
		return "insufficient"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// ===== 装备 =====

// Equip 装备到持有者的存活食蚁兽，同类型已装备的记录在同一事务中被卸下
func (s *AccessoryService) Equip(ctx context.Context, ownershipID int64) (owned *model.OwnedAccessory, err error) {
	ctx, span := otel.StartSpan(ctx, "accessory.Equip", otel.Int64(otel.AttrOwnershipID, ownershipID))
	defer func() { otel.EndSpan(span, err) }()

	var swapped int64
	err = s.store.WithinTx(ctx, "equip", func(ctx context.Context, tx repository.Repos) error {
		swapped = 0

		o, err := tx.GetOwnership(ctx, ownershipID)
		if err != nil {
			return mapMissing(err, ErrNotFound, "ownership %d not found", ownershipID)
		}

		// 1. 用户 → 食蚁兽 → 持有记录
		if _, err := tx.LockUser(ctx, o.UID); err != nil {
			return err
		}
		anteater, err := tx.LockAliveAnteater(ctx, o.UID)
		if err != nil {
			return mapMissing(err, ErrPreconditionFailed, "user %d has no alive anteater", o.UID)
		}
		o, err = tx.LockOwnership(ctx, ownershipID)
		if err != nil {
			return mapMissing(err, ErrNotFound, "ownership %d not found", ownershipID)
		}

		a, err := tx.GetAccessory(ctx, o.AccessoryID)
		if err != nil {
			return err
		}

		// 2. 已装备在同一只上，无需变更
		if o.AnteaterID != nil && *o.AnteaterID == anteater.ID {
			owned = model.NewOwnedAccessory(o, a)
			return nil
		}

		// 3. 卸下同类型后装备
		swapped, err = tx.UnequipType(ctx, anteater.ID, a.Type, o.ID)
		if err != nil {
			return err
		}
		anteaterID := anteater.ID
		if err := tx.SetOwnershipAnteater(ctx, o.ID, &anteaterID); err != nil {
			return err
		}

		o.AnteaterID = &anteaterID
		owned = model.NewOwnedAccessory(o, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEquip("equip")
	if swapped > 0 {
		s.metrics.RecordEquip("swap")
	}
	s.logger.DebugContext(ctx, "accessory equipped",
		"ownership_id", ownershipID,
		"anteater_id", *owned.AnteaterID,
		"unequipped", swapped,
	)
	return owned, nil
}

// Unequip 卸下，未装备时同样成功
func (s *AccessoryService) Unequip(ctx context.Context, ownershipID int64) (owned *model.OwnedAccessory, err error) {
	ctx, span := otel.StartSpan(ctx, "accessory.Unequip", otel.Int64(otel.AttrOwnershipID, ownershipID))
	defer func() { otel.EndSpan(span, err) }()

	err = s.store.WithinTx(ctx, "unequip", func(ctx context.Context, tx repository.Repos) error {
		o, err := tx.GetOwnership(ctx, ownershipID)
		if err != nil {
			return mapMissing(err, ErrNotFound, "ownership %d not found", ownershipID)
		}
		if _, err := tx.LockUser(ctx, o.UID); err != nil {
			return err
		}
		o, err = tx.LockOwnership(ctx, ownershipID)
		if err != nil {
			return mapMissing(err, ErrNotFound, "ownership %d not found", ownershipID)
		}

		if err := tx.SetOwnershipAnteater(ctx, o.ID, nil); err != nil {
			return err
		}
		a, err := tx.GetAccessory(ctx, o.AccessoryID)
		if err != nil {
			return err
		}

		o.AnteaterID = nil
		owned = model.NewOwnedAccessory(o, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEquip("unequip")
	return owned, nil
}

// ListEquipped 列出用户存活食蚁兽上的装备
func (s *AccessoryService) ListEquipped(ctx context.Context, uid int64) ([]*model.OwnedAccessory, error) {
	if _, err := s.store.GetUser(ctx, uid); err != nil {
		return nil, mapMissing(err, ErrNotFound, "user %d not found", uid)
	}
	a, err := s.store.GetAliveAnteater(ctx, uid)
	if err != nil {
		return nil, mapMissing(err, ErrPreconditionFailed, "user %d has no alive anteater", uid)
	}
	return s.store.ListEquipped(ctx, a.ID)
}

// ===== 持有记录 =====

// GetOwnership 获取持有记录
func (s *AccessoryService) GetOwnership(ctx context.Context, id int64) (*model.OwnedAccessory, error) {
	o, err := s.store.GetOwnedAccessory(ctx, id)
	if err != nil {
		return nil, mapMissing(err, ErrNotFound, "ownership %d not found", id)
	}
	return o, nil
}

// ListInventory 列出用户全部持有记录
func (s *AccessoryService) ListInventory(ctx context.Context, uid int64) ([]*model.OwnedAccessory, error) {
	if _, err := s.store.GetUser(ctx, uid); err != nil {
		return nil, mapMissing(err, ErrNotFound, "user %d not found", uid)
	}
	return s.store.ListInventory(ctx, uid)
}

// Sell 删除持有记录（无论是否装备），不退款
func (s *AccessoryService) Sell(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, "sell", func(ctx context.Context, tx repository.Repos) error {
		return tx.DeleteOwnership(ctx, id)
	})
	if err != nil {
		return mapMissing(err, ErrNotFound, "ownership %d not found", id)
	}
	s.logger.InfoContext(ctx, "ownership deleted", "ownership_id", id)
	return nil
}

// ClearInventory 删除用户全部持有记录，返回删除数量
func (s *AccessoryService) ClearInventory(ctx context.Context, uid int64) (int64, error) {
	var n int64
	err := s.store.WithinTx(ctx, "clear_inventory", func(ctx context.Context, tx repository.Repos) error {
		if _, err := tx.LockUser(ctx, uid); err != nil {
			return mapMissing(err, ErrNotFound, "user %d not found", uid)
		}
		var err error
		n, err = tx.ClearInventory(ctx, uid)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "inventory cleared", "uid", uid, "deleted", n)
	return n, nil
}

// ShopView 商店视图：每个目录条目附带是否持有及最小的持有记录 id
func (s *AccessoryService) ShopView(ctx context.Context, uid int64) ([]*model.ShopEntry, error) {
	if _, err := s.store.GetUser(ctx, uid); err != nil {
		return nil, mapMissing(err, ErrNotFound, "user %d not found", uid)
	}

	catalog, err := s.ListAccessories(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := s.store.ListInventory(ctx, uid)
	if err != nil {
		return nil, err
	}

	firstOwned := make(map[int64]int64, len(inventory))
	for _, o := range inventory {
		if id, ok := firstOwned[o.AccessoryID]; !ok || o.ID < id {
			firstOwned[o.AccessoryID] = o.ID
		}
	}

	entries := make([]*model.ShopEntry, 0, len(catalog))
	for _, a := range catalog {
		entry := &model.ShopEntry{Accessory: *a}
		if id, ok := firstOwned[a.ID]; ok {
			id := id
			entry.Owned = true
			entry.OwnershipID = &id
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
