// Package repotest 提供 repository.Store 的内存实现，WithinTx 全局串行执行，
// fn 返回错误时回滚到执行前的快照。仅用于测试。
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/conversion"
	"github.com/lk2023060901/pocketzot/app/economy/internal/migrations"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
)

var (
	// ErrConstraint 违反约束（对应数据库 CHECK/UNIQUE）
	ErrConstraint = errors.New("repotest: constraint violation")
)

type state struct {
	users       map[int64]model.User
	anteaters   map[int64]model.Anteater
	accessories map[int64]model.Accessory
	ownerships  map[int64]model.Ownership
	seq         int64
}

func (s *state) clone() *state {
	c := &state{
		users:       make(map[int64]model.User, len(s.users)),
		anteaters:   make(map[int64]model.Anteater, len(s.anteaters)),
		accessories: make(map[int64]model.Accessory, len(s.accessories)),
		ownerships:  make(map[int64]model.Ownership, len(s.ownerships)),
		seq:         s.seq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.anteaters {
		c.anteaters[k] = v
	}
	for k, v := range s.accessories {
		c.accessories[k] = v
	}
	for k, v := range s.ownerships {
		if v.AnteaterID != nil {
			id := *v.AnteaterID
			v.AnteaterID = &id
		}
		c.ownerships[k] = v
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store 内存仓储
type Store struct {
	mu    sync.Mutex
	st    *state
	now   func() time.Time
	txErr  []error
	txRun  int
	faults map[string]error
}

var _ repository.Store = (*Store)(nil)

// NewStore 创建内存仓储并写入初始商品目录
func NewStore() *Store {
	s := &Store{
		st: &state{
			users:       map[int64]model.User{},
			anteaters:   map[int64]model.Anteater{},
			accessories: map[int64]model.Accessory{},
			ownerships:  map[int64]model.Ownership{},
		},
		now: time.Now,
	}
	for _, a := range migrations.SeedCatalog() {
		a.ID = s.st.nextID()
		s.st.accessories[a.ID] = a
	}
	return s
}

// FailNextTx 让接下来的 WithinTx 依次返回给定错误（不执行 fn）
func (s *Store) FailNextTx(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txErr = append(s.txErr, errs...)
}

// FailOn 让事务内下一次对 method（Repos 方法名）的写调用返回 err，
// 此前已完成的写入随事务一起回滚
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faults == nil {
		s.faults = map[string]error{}
	}
	s.faults[method] = err
}

// TxCount 已提交或回滚的事务数
func (s *Store) TxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txRun
}

// WithinTx 串行执行 fn，出错回滚
func (s *Store) WithinTx(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.txErr) > 0 {
		err := s.txErr[0]
		s.txErr = s.txErr[1:]
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txRun++
	snapshot := s.st.clone()
	if err := fn(ctx, &txRepos{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Ping 始终可用
func (s *Store) Ping(context.Context) error {
	return nil
}

// locked 在非事务调用时加锁
func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// txRepos 事务内视图，调用方已持有 Store.mu
type txRepos struct {
	s *Store
}

func (t *txRepos) run(fn func(st *state) error) error {
	return fn(t.s.st)
}

// fault 取出并清除 method 上注入的错误
func (t *txRepos) fault(method string) error {
	err, ok := t.s.faults[method]
	if !ok {
		return nil
	}
	delete(t.s.faults, method)
	return err
}

// ===== Store 直接调用 =====

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	return listUsers(s.locked)
}
func (s *Store) GetUser(ctx context.Context, uid int64) (*model.User, error) {
	return getUser(s.locked, uid)
}
func (s *Store) LockUser(ctx context.Context, uid int64) (*model.User, error) {
	return getUser(s.locked, uid)
}
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return getUserByEmail(s.locked, email)
}
func (s *Store) UpsertUser(ctx context.Context, name, email string) (*model.User, error) {
	return upsertUser(s.locked, s.now, name, email)
}
func (s *Store) UpdateUserAnts(ctx context.Context, uid, ants int64) error {
	return updateUserAnts(s.locked, uid, ants)
}
func (s *Store) GetAnteater(ctx context.Context, id int64) (*model.Anteater, error) {
	return getAnteater(s.locked, id)
}
func (s *Store) LockAnteater(ctx context.Context, id int64) (*model.Anteater, error) {
	return getAnteater(s.locked, id)
}
func (s *Store) GetAliveAnteater(ctx context.Context, uid int64) (*model.Anteater, error) {
	return getAliveAnteater(s.locked, uid)
}
func (s *Store) LockAliveAnteater(ctx context.Context, uid int64) (*model.Anteater, error) {
	return getAliveAnteater(s.locked, uid)
}
func (s *Store) ListAnteaters(ctx context.Context, uid int64) ([]*model.Anteater, error) {
	return listAnteaters(s.locked, uid)
}
func (s *Store) CreateAnteater(ctx context.Context, uid int64, name string) (*model.Anteater, error) {
	return createAnteater(s.locked, s.now, uid, name)
}
func (s *Store) UpdateAnteaterHealth(ctx context.Context, id, health int64) error {
	return updateAnteaterHealth(s.locked, id, health)
}
func (s *Store) ListAccessories(ctx context.Context) ([]*model.Accessory, error) {
	return listAccessories(s.locked)
}
func (s *Store) GetAccessory(ctx context.Context, id int64) (*model.Accessory, error) {
	return getAccessory(s.locked, id)
}
func (s *Store) GetAccessoryByName(ctx context.Context, name string) (*model.Accessory, error) {
	return getAccessoryByName(s.locked, name)
}
func (s *Store) UpdateAccessoryPrice(ctx context.Context, id, price int64) error {
	return updateAccessoryPrice(s.locked, id, price)
}
func (s *Store) UpsertAccessory(ctx context.Context, a *model.Accessory) (*model.Accessory, error) {
	return upsertAccessory(s.locked, a)
}
func (s *Store) GetOwnership(ctx context.Context, id int64) (*model.Ownership, error) {
	return getOwnership(s.locked, id)
}
func (s *Store) LockOwnership(ctx context.Context, id int64) (*model.Ownership, error) {
	return getOwnership(s.locked, id)
}
func (s *Store) GetOwnedAccessory(ctx context.Context, id int64) (*model.OwnedAccessory, error) {
	return getOwned(s.locked, id)
}
func (s *Store) ListInventory(ctx context.Context, uid int64) ([]*model.OwnedAccessory, error) {
	return listOwned(s.locked, func(o model.Ownership) bool { return o.UID == uid })
}
func (s *Store) ListEquipped(ctx context.Context, anteaterID int64) ([]*model.OwnedAccessory, error) {
	return listOwned(s.locked, equippedTo(anteaterID))
}
func (s *Store) CreateOwnership(ctx context.Context, uid, accessoryID int64) (*model.Ownership, error) {
	return createOwnership(s.locked, s.now, uid, accessoryID)
}
func (s *Store) SetOwnershipAnteater(ctx context.Context, id int64, anteaterID *int64) error {
	return setOwnershipAnteater(s.locked, id, anteaterID)
}
func (s *Store) UnequipType(ctx context.Context, anteaterID int64, accessoryType string, exceptID int64) (int64, error) {
	return unequipType(s.locked, anteaterID, accessoryType, exceptID)
}
func (s *Store) DeleteOwnership(ctx context.Context, id int64) error {
	return deleteOwnership(s.locked, id)
}
func (s *Store) ClearInventory(ctx context.Context, uid int64) (int64, error) {
	return clearInventory(s.locked, uid)
}

// ===== 事务内调用 =====

func (t *txRepos) ListUsers(ctx context.Context) ([]*model.User, error) {
	return listUsers(t.run)
}
func (t *txRepos) GetUser(ctx context.Context, uid int64) (*model.User, error) {
	return getUser(t.run, uid)
}
func (t *txRepos) LockUser(ctx context.Context, uid int64) (*model.User, error) {
	return getUser(t.run, uid)
}
func (t *txRepos) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return getUserByEmail(t.run, email)
}
func (t *txRepos) UpsertUser(ctx context.Context, name, email string) (*model.User, error) {
	if err := t.fault("UpsertUser"); err != nil {
		return nil, err
	}
	return upsertUser(t.run, t.s.now, name, email)
}
func (t *txRepos) UpdateUserAnts(ctx context.Context, uid, ants int64) error {
	if err := t.fault("UpdateUserAnts"); err != nil {
		return err
	}
	return updateUserAnts(t.run, uid, ants)
}
func (t *txRepos) GetAnteater(ctx context.Context, id int64) (*model.Anteater, error) {
	return getAnteater(t.run, id)
}
func (t *txRepos) LockAnteater(ctx context.Context, id int64) (*model.Anteater, error) {
	return getAnteater(t.run, id)
}
func (t *txRepos) GetAliveAnteater(ctx context.Context, uid int64) (*model.Anteater, error) {
	return getAliveAnteater(t.run, uid)
}
func (t *txRepos) LockAliveAnteater(ctx context.Context, uid int64) (*model.Anteater, error) {
	return getAliveAnteater(t.run, uid)
}
func (t *txRepos) ListAnteaters(ctx context.Context, uid int64) ([]*model.Anteater, error) {
	return listAnteaters(t.run, uid)
}
func (t *txRepos) CreateAnteater(ctx context.Context, uid int64, name string) (*model.Anteater, error) {
	if err := t.fault("CreateAnteater"); err != nil {
		return nil, err
	}
	return createAnteater(t.run, t.s.now, uid, name)
}
func (t *txRepos) UpdateAnteaterHealth(ctx context.Context, id, health int64) error {
	if err := t.fault("UpdateAnteaterHealth"); err != nil {
		return err
	}
	return updateAnteaterHealth(t.run, id, health)
}
func (t *txRepos) ListAccessories(ctx context.Context) ([]*model.Accessory, error) {
	return listAccessories(t.run)
}
func (t *txRepos) GetAccessory(ctx context.Context, id int64) (*model.Accessory, error) {
	return getAccessory(t.run, id)
}
func (t *txRepos) GetAccessoryByName(ctx context.Context, name string) (*model.Accessory, error) {
	return getAccessoryByName(t.run, name)
}
func (t *txRepos) UpdateAccessoryPrice(ctx context.Context, id, price int64) error {
	if err := t.fault("UpdateAccessoryPrice"); err != nil {
		return err
	}
	return updateAccessoryPrice(t.run, id, price)
}
func (t *txRepos) UpsertAccessory(ctx context.Context, a *model.Accessory) (*model.Accessory, error) {
	if err := t.fault("UpsertAccessory"); err != nil {
		return nil, err
	}
	return upsertAccessory(t.run, a)
}
func (t *txRepos) GetOwnership(ctx context.Context, id int64) (*model.Ownership, error) {
	return getOwnership(t.run, id)
}
func (t *txRepos) LockOwnership(ctx context.Context, id int64) (*model.Ownership, error) {
	return getOwnership(t.run, id)
}
func (t *txRepos) GetOwnedAccessory(ctx context.Context, id int64) (*model.OwnedAccessory, error) {
	return getOwned(t.run, id)
}
func (t *txRepos) ListInventory(ctx context.Context, uid int64) ([]*model.OwnedAccessory, error) {
	return listOwned(t.run, func(o model.Ownership) bool { return o.UID == uid })
}
func (t *txRepos) ListEquipped(ctx context.Context, anteaterID int64) ([]*model.OwnedAccessory, error) {
	return listOwned(t.run, equippedTo(anteaterID))
}
func (t *txRepos) CreateOwnership(ctx context.Context, uid, accessoryID int64) (*model.Ownership, error) {
	if err := t.fault("CreateOwnership"); err != nil {
		return nil, err
	}
	return createOwnership(t.run, t.s.now, uid, accessoryID)
}
func (t *txRepos) SetOwnershipAnteater(ctx context.Context, id int64, anteaterID *int64) error {
	if err := t.fault("SetOwnershipAnteater"); err != nil {
		return err
	}
	return setOwnershipAnteater(t.run, id, anteaterID)
}
func (t *txRepos) UnequipType(ctx context.Context, anteaterID int64, accessoryType string, exceptID int64) (int64, error) {
	if err := t.fault("UnequipType"); err != nil {
		return 0, err
	}
	return unequipType(t.run, anteaterID, accessoryType, exceptID)
}
func (t *txRepos) DeleteOwnership(ctx context.Context, id int64) error {
	if err := t.fault("DeleteOwnership"); err != nil {
		return err
	}
	return deleteOwnership(t.run, id)
}
func (t *txRepos) ClearInventory(ctx context.Context, uid int64) (int64, error) {
	if err := t.fault("ClearInventory"); err != nil {
		return 0, err
	}
	return clearInventory(t.run, uid)
}

// ===== 实现 =====

type runner func(fn func(st *state) error) error

func listUsers(run runner) ([]*model.User, error) {
	var out []*model.User
	err := run(func(st *state) error {
		for _, u := range st.users {
			u := u
			out = append(out, &u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func getUser(run runner, uid int64) (*model.User, error) {
	var out *model.User
	err := run(func(st *state) error {
		u, ok := st.users[uid]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "user %d", uid)
		}
		out = &u
		return nil
	})
	return out, err
}

func getUserByEmail(run runner, email string) (*model.User, error) {
	var out *model.User
	err := run(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return errors.Wrapf(repository.ErrNotFound, "user %q", email)
	})
	return out, err
}

func upsertUser(run runner, now func() time.Time, name, email string) (*model.User, error) {
	var out *model.User
	err := run(func(st *state) error {
		for id, u := range st.users {
			if u.Email == email {
				u.Name = name
				st.users[id] = u
				out = &u
				return nil
			}
		}
		u := model.User{ID: st.nextID(), Name: name, Email: email, CreatedAt: now()}
		st.users[u.ID] = u
		out = &u
		return nil
	})
	return out, err
}

func updateUserAnts(run runner, uid, ants int64) error {
	return run(func(st *state) error {
		u, ok := st.users[uid]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "user %d", uid)
		}
		if ants < 0 {
			return errors.Wrapf(ErrConstraint, "ants %d < 0", ants)
		}
		u.Ants = ants
		st.users[uid] = u
		return nil
	})
}

func getAnteater(run runner, id int64) (*model.Anteater, error) {
	var out *model.Anteater
	err := run(func(st *state) error {
		a, ok := st.anteaters[id]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "anteater %d", id)
		}
		out = &a
		return nil
	})
	return out, err
}

func getAliveAnteater(run runner, uid int64) (*model.Anteater, error) {
	var out *model.Anteater
	err := run(func(st *state) error {
		for _, a := range st.anteaters {
			if a.UID == uid && !a.IsDead {
				a := a
				out = &a
				return nil
			}
		}
		return errors.Wrapf(repository.ErrNotFound, "alive anteater of user %d", uid)
	})
	return out, err
}

func listAnteaters(run runner, uid int64) ([]*model.Anteater, error) {
	var out []*model.Anteater
	err := run(func(st *state) error {
		for _, a := range st.anteaters {
			if a.UID == uid {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func createAnteater(run runner, now func() time.Time, uid int64, name string) (*model.Anteater, error) {
	var out *model.Anteater
	err := run(func(st *state) error {
		if _, ok := st.users[uid]; !ok {
			return errors.Wrapf(ErrConstraint, "user %d does not exist", uid)
		}
		for _, a := range st.anteaters {
			if a.UID == uid && !a.IsDead {
				return errors.Wrapf(ErrConstraint, "user %d already has an alive anteater", uid)
			}
		}
		a := model.Anteater{ID: st.nextID(), UID: uid, Name: name, Health: conversion.MaxHealth, CreatedAt: now()}
		st.anteaters[a.ID] = a
		out = &a
		return nil
	})
	return out, err
}

func updateAnteaterHealth(run runner, id, health int64) error {
	return run(func(st *state) error {
		a, ok := st.anteaters[id]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "anteater %d", id)
		}
		if health < 0 || health > conversion.MaxHealth {
			return errors.Wrapf(ErrConstraint, "health %d out of range", health)
		}
		a.Health = health
		a.IsDead = health == 0
		st.anteaters[id] = a
		return nil
	})
}

func listAccessories(run runner) ([]*model.Accessory, error) {
	var out []*model.Accessory
	err := run(func(st *state) error {
		for _, a := range st.accessories {
			a := a
			out = append(out, &a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func getAccessory(run runner, id int64) (*model.Accessory, error) {
	var out *model.Accessory
	err := run(func(st *state) error {
		a, ok := st.accessories[id]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "accessory %d", id)
		}
		out = &a
		return nil
	})
	return out, err
}

func getAccessoryByName(run runner, name string) (*model.Accessory, error) {
	var out *model.Accessory
	err := run(func(st *state) error {
		for _, a := range st.accessories {
			if a.Name == name {
				a := a
				out = &a
				return nil
			}
		}
		return errors.Wrapf(repository.ErrNotFound, "accessory %q", name)
	})
	return out, err
}

func updateAccessoryPrice(run runner, id, price int64) error {
	return run(func(st *state) error {
		a, ok := st.accessories[id]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "accessory %d", id)
		}
		if price < 0 {
			return errors.Wrapf(ErrConstraint, "price %d < 0", price)
		}
		a.Price = price
		st.accessories[id] = a
		return nil
	})
}

func upsertAccessory(run runner, in *model.Accessory) (*model.Accessory, error) {
	var out *model.Accessory
	err := run(func(st *state) error {
		a := *in
		for id, existing := range st.accessories {
			if existing.Name == in.Name {
				a.ID = id
				st.accessories[id] = a
				out = &a
				return nil
			}
		}
		a.ID = st.nextID()
		st.accessories[a.ID] = a
		out = &a
		return nil
	})
	return out, err
}

func copyOwnership(o model.Ownership) *model.Ownership {
	if o.AnteaterID != nil {
		id := *o.AnteaterID
		o.AnteaterID = &id
	}
	return &o
}

func getOwnership(run runner, id int64) (*model.Ownership, error) {
	var out *model.Ownership
	err := run(func(st *state) error {
		o, ok := st.ownerships[id]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "ownership %d", id)
		}
		out = copyOwnership(o)
		return nil
	})
	return out, err
}

func getOwned(run runner, id int64) (*model.OwnedAccessory, error) {
	var out *model.OwnedAccessory
	err := run(func(st *state) error {
		o, ok := st.ownerships[id]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "ownership %d", id)
		}
		a := st.accessories[o.AccessoryID]
		out = model.NewOwnedAccessory(copyOwnership(o), &a)
		return nil
	})
	return out, err
}

func equippedTo(anteaterID int64) func(o model.Ownership) bool {
	return func(o model.Ownership) bool {
		return o.AnteaterID != nil && *o.AnteaterID == anteaterID
	}
}

func listOwned(run runner, match func(o model.Ownership) bool) ([]*model.OwnedAccessory, error) {
	var out []*model.OwnedAccessory
	err := run(func(st *state) error {
		for _, o := range st.ownerships {
			if match(o) {
				a := st.accessories[o.AccessoryID]
				out = append(out, model.NewOwnedAccessory(copyOwnership(o), &a))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func createOwnership(run runner, now func() time.Time, uid, accessoryID int64) (*model.Ownership, error) {
	var out *model.Ownership
	err := run(func(st *state) error {
		if _, ok := st.users[uid]; !ok {
			return errors.Wrapf(ErrConstraint, "user %d does not exist", uid)
		}
		if _, ok := st.accessories[accessoryID]; !ok {
			return errors.Wrapf(ErrConstraint, "accessory %d does not exist", accessoryID)
		}
		o := model.Ownership{ID: st.nextID(), UID: uid, AccessoryID: accessoryID, CreatedAt: now()}
		st.ownerships[o.ID] = o
		out = copyOwnership(o)
		return nil
	})
	return out, err
}

func setOwnershipAnteater(run runner, id int64, anteaterID *int64) error {
	return run(func(st *state) error {
		o, ok := st.ownerships[id]
		if !ok {
			return errors.Wrapf(repository.ErrNotFound, "ownership %d", id)
		}
		if anteaterID != nil {
			if _, ok := st.anteaters[*anteaterID]; !ok {
				return errors.Wrapf(ErrConstraint, "anteater %d does not exist", *anteaterID)
			}
			v := *anteaterID
			o.AnteaterID = &v
		} else {
			o.AnteaterID = nil
		}
		st.ownerships[id] = o
		return nil
	})
}

func unequipType(run runner, anteaterID int64, accessoryType string, exceptID int64) (int64, error) {
	var n int64
	err := run(func(st *state) error {
		for id, o := range st.ownerships {
			if id == exceptID || o.AnteaterID == nil || *o.AnteaterID != anteaterID {
				continue
			}
			if st.accessories[o.AccessoryID].Type != accessoryType {
				continue
			}
			o.AnteaterID = nil
			st.ownerships[id] = o
			n++
		}
		return nil
	})
	return n, err
}

func deleteOwnership(run runner, id int64) error {
	return run(func(st *state) error {
		if _, ok := st.ownerships[id]; !ok {
			return errors.Wrapf(repository.ErrNotFound, "ownership %d", id)
		}
		delete(st.ownerships, id)
		return nil
	})
}

func clearInventory(run runner, uid int64) (int64, error) {
	var n int64
	err := run(func(st *state) error {
		for id, o := range st.ownerships {
			if o.UID == uid {
				delete(st.ownerships, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
