// Package repository 将 DAO 组合为服务层使用的仓储，并提供可序列化事务边界。
package repository

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("repository: record not found")

// Repos 一次调用（或一个事务）内可见的数据访问集合。
// Lock* 方法在事务内加 FOR UPDATE 行锁，调用顺序固定为 用户 → 食蚁兽 → 持有记录。
type Repos interface {
	// ===== 用户 =====
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUser(ctx context.Context, uid int64) (*model.User, error)
	LockUser(ctx context.Context, uid int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpsertUser(ctx context.Context, name, email string) (*model.User, error)
	UpdateUserAnts(ctx context.Context, uid, ants int64) error

	// ===== 食蚁兽 =====
	GetAnteater(ctx context.Context, id int64) (*model.Anteater, error)
	LockAnteater(ctx context.Context, id int64) (*model.Anteater, error)
	GetAliveAnteater(ctx context.Context, uid int64) (*model.Anteater, error)
	LockAliveAnteater(ctx context.Context, uid int64) (*model.Anteater, error)
	ListAnteaters(ctx context.Context, uid int64) ([]*model.Anteater, error)
	CreateAnteater(ctx context.Context, uid int64, name string) (*model.Anteater, error)
	UpdateAnteaterHealth(ctx context.Context, id, health int64) error

	// ===== 商品目录 =====
	ListAccessories(ctx context.Context) ([]*model.Accessory, error)
	GetAccessory(ctx context.Context, id int64) (*model.Accessory, error)
	GetAccessoryByName(ctx context.Context, name string) (*model.Accessory, error)
	UpdateAccessoryPrice(ctx context.Context, id, price int64) error
	UpsertAccessory(ctx context.Context, a *model.Accessory) (*model.Accessory, error)

	// ===== 持有记录 =====
	GetOwnership(ctx context.Context, id int64) (*model.Ownership, error)
	LockOwnership(ctx context.Context, id int64) (*model.Ownership, error)
	GetOwnedAccessory(ctx context.Context, id int64) (*model.OwnedAccessory, error)
	ListInventory(ctx context.Context, uid int64) ([]*model.OwnedAccessory, error)
	ListEquipped(ctx context.Context, anteaterID int64) ([]*model.OwnedAccessory, error)
	CreateOwnership(ctx context.Context, uid, accessoryID int64) (*model.Ownership, error)
	SetOwnershipAnteater(ctx context.Context, id int64, anteaterID *int64) error
	UnequipType(ctx context.Context, anteaterID int64, accessoryType string, exceptID int64) (int64, error)
	DeleteOwnership(ctx context.Context, id int64) error
	ClearInventory(ctx context.Context, uid int64) (int64, error)
}

// Store 仓储入口。直接调用的方法各自独立执行；WithinTx 内的所有调用共享一个事务。
type Store interface {
	Repos

	// WithinTx 在 SERIALIZABLE 事务中执行 fn，序列化冲突时整体重试；
	// op 用于日志与指标。fn 返回错误时事务回滚且错误原样返回。
	WithinTx(ctx context.Context, op string, fn func(ctx context.Context, tx Repos) error) error

	// Ping 检查存储是否可用
	Ping(ctx context.Context) error
}
