package model

import "time"

// User 用户，ants 为可消耗资源
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Ants      int64     `db:"ants" json:"ants"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Anteater 食蚁兽，health 为 0 即死亡且不可复活
type Anteater struct {
	ID        int64     `db:"id" json:"id"`
	UID       int64     `db:"uid" json:"uid"`
	Name      string    `db:"name" json:"name"`
	Health    int64     `db:"health" json:"health"`
	IsDead    bool      `db:"is_dead" json:"is_dead"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PoolState 资源池快照：用户 ants 与当前存活（或本次刚死亡）食蚁兽的 health
type PoolState struct {
	UID          int64   `json:"uid"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Ants         int64   `json:"ants"`
	Health       int64   `json:"health"`
	AnteaterID   *int64  `json:"anteater_id"`
	AnteaterName *string `json:"anteater_name"`
	IsDead       bool    `json:"is_dead"`
}

// NewPoolState 由用户与可选的食蚁兽组装快照
func NewPoolState(u *User, a *Anteater) *PoolState {
	ps := &PoolState{
		UID:   u.ID,
		Name:  u.Name,
		Email: u.Email,
		Ants:  u.Ants,
	}
	if a != nil {
		id, name := a.ID, a.Name
		ps.Health = a.Health
		ps.AnteaterID = &id
		ps.AnteaterName = &name
		ps.IsDead = a.IsDead
	}
	return ps
}
