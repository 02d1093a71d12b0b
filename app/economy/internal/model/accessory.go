package model

import "time"

// DefaultAccessoryType 默认装备槽位
const DefaultAccessoryType = "hat"

// Accessory 商品目录条目
type Accessory struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Price       int64  `db:"price" json:"price"`
	Type        string `db:"type" json:"type"`
	ImageURL    string `db:"image_url" json:"image_url"`
	Description string `db:"description" json:"description"`
}

// Ownership 持有记录（has_accessory），AnteaterID 为空表示未装备
type Ownership struct {
	ID          int64     `db:"id" json:"id"`
	UID         int64     `db:"uid" json:"uid"`
	AccessoryID int64     `db:"accessory_id" json:"accessory_id"`
	AnteaterID  *int64    `db:"anteater_id" json:"anteater_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Equipped 是否已装备
func (o *Ownership) Equipped() bool {
	return o.AnteaterID != nil
}

// OwnedAccessory 持有记录与目录字段的联合视图
type OwnedAccessory struct {
	ID          int64     `db:"id" json:"id"`
	UID         int64     `db:"uid" json:"uid"`
	AccessoryID int64     `db:"accessory_id" json:"accessory_id"`
	AnteaterID  *int64    `db:"anteater_id" json:"anteater_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Name        string    `db:"name" json:"name"`
	Price       int64     `db:"price" json:"price"`
	Type        string    `db:"type" json:"type"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	Description string    `db:"description" json:"description"`
}

// Equipped 是否已装备
func (o *OwnedAccessory) Equipped() bool {
	return o.AnteaterID != nil
}

// NewOwnedAccessory 组装联合视图
func NewOwnedAccessory(o *Ownership, a *Accessory) *OwnedAccessory {
	return &OwnedAccessory{
		ID:          o.ID,
		UID:         o.UID,
		AccessoryID: o.AccessoryID,
		AnteaterID:  o.AnteaterID,
		CreatedAt:   o.CreatedAt,
		Name:        a.Name,
		Price:       a.Price,
		Type:        a.Type,
		ImageURL:    a.ImageURL,
		Description: a.Description,
	}
}

// ShopEntry 商店视图条目
type ShopEntry struct {
	Accessory
	Owned       bool   `json:"owned"`
	OwnershipID *int64 `json:"ownership_id"`
}
