// Package migrations 内嵌 PostgreSQL 表结构与目录种子，按文件名顺序执行且每个文件只执行一次。
package migrations

import (
	"embed"

	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
)

//go:embed sql/*.sql
var FS embed.FS

// Root FS 内迁移文件所在目录
const Root = "sql"

// SeedCatalog 初始商品目录，与 002_seed_catalog.sql 保持一致
func SeedCatalog() []model.Accessory {
	return []model.Accessory{
		{Name: "Plumber", Price: 5, Type: model.DefaultAccessoryType, ImageURL: "dist/anteaterchar/assets/Plumber.png", Description: "Plumber hat"},
		{Name: "Merrier", Price: 5, Type: model.DefaultAccessoryType, ImageURL: "dist/anteaterchar/assets/Merrier.png", Description: "Merrier hat"},
		{Name: "Egg", Price: 10, Type: model.DefaultAccessoryType, ImageURL: "dist/anteaterchar/assets/Egg.png", Description: "Egg hat"},
		{Name: "Crown", Price: 25, Type: model.DefaultAccessoryType, ImageURL: "dist/anteaterchar/assets/Crown.png", Description: "Crown hat"},
	}
}
