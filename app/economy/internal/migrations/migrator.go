package migrations

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/lk2023060901/pocketzot/pkg/logger"
)

const (
	migrationTable = "schema_migrations"

	markerUp   = "-- +migrate Up"
	markerDown = "-- +migrate Down"
)

// Migration 单个迁移文件
type Migration struct {
	Name string
	Up   string
	Down string
}

// Status 迁移状态
type Status struct {
	Name    string
	Applied bool
}

// Load 读取并按文件名排序全部迁移
func Load(fsys fs.FS, root string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations dir")
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return nil, errors.Wrapf(err, "read migration %s", name)
		}
		up, down := split(string(content))
		migrations = append(migrations, Migration{Name: name, Up: up, Down: down})
	}
	return migrations, nil
}

// split 按 Up/Down 标记切分，没有标记时整个文件视为 Up
func split(content string) (up, down string) {
	upIdx := strings.Index(content, markerUp)
	if upIdx == -1 {
		return strings.TrimSpace(content), ""
	}
	body := content[upIdx+len(markerUp):]
	downIdx := strings.Index(body, markerDown)
	if downIdx == -1 {
		return strings.TrimSpace(body), ""
	}
	return strings.TrimSpace(body[:downIdx]), strings.TrimSpace(body[downIdx+len(markerDown):])
}

// Migrator 在 PostgreSQL 上执行内嵌迁移
type Migrator struct {
	db         *postgres.Client
	logger     logger.Logger
	migrations []Migration
}

// NewMigrator 创建迁移器
func NewMigrator(db *postgres.Client, l logger.Logger) (*Migrator, error) {
	migrations, err := Load(FS, Root)
	if err != nil {
		return nil, err
	}
	return &Migrator{
		db:         db,
		logger:     l.Named("migrations"),
		migrations: migrations,
	}, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	return errors.Wrap(err, "ensure migration table")
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	query, args, err := postgres.QueryBuilder.Select("name").From(migrationTable).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	type row struct {
		Name string `db:"name"`
	}
	rows, err := postgres.QueryAll[row](ctx, m.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list applied migrations")
	}

	result := make(map[string]bool, len(rows))
	for _, r := range rows {
		result[r.Name] = true
	}
	return result, nil
}

// Up 依次执行未应用的迁移，每个文件一个事务，返回本次应用的文件名
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, mig := range m.migrations {
		if done[mig.Name] {
			continue
		}

		err := m.db.WithTx(ctx, func(tx postgres.Tx) error {
			// 加事务级锁，避免多个进程同时迁移
			if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext('"+migrationTable+"'))"); err != nil {
				return errors.Wrap(err, "acquire migration lock")
			}
			if mig.Up != "" {
				if _, err := tx.Exec(ctx, mig.Up); err != nil {
					return errors.Wrapf(err, "exec migration %s", mig.Name)
				}
			}

			query, args, err := postgres.QueryBuilder.
				Insert(migrationTable).
				Columns("name").
				Values(mig.Name).
				Suffix("ON CONFLICT (name) DO NOTHING").
				ToSql()
			if err != nil {
				return errors.Wrap(err, "failed to build query")
			}
			_, err = tx.Exec(ctx, query, args...)
			return errors.Wrapf(err, "record migration %s", mig.Name)
		})
		if err != nil {
			m.logger.Error("migration failed", "name", mig.Name, "error", err)
			return applied, err
		}

		m.logger.Info("migration applied", "name", mig.Name)
		applied = append(applied, mig.Name)
	}
	return applied, nil
}

// Down 回滚最近一次应用的迁移，没有可回滚时返回空字符串
func (m *Migrator) Down(ctx context.Context) (string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return "", err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return "", err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if !done[mig.Name] {
			continue
		}

		err := m.db.WithTx(ctx, func(tx postgres.Tx) error {
			if mig.Down != "" {
				if _, err := tx.Exec(ctx, mig.Down); err != nil {
					return errors.Wrapf(err, "revert migration %s", mig.Name)
				}
			}
			query, args, err := postgres.QueryBuilder.
				Delete(migrationTable).
				Where(squirrel.Eq{"name": mig.Name}).
				ToSql()
			if err != nil {
				return errors.Wrap(err, "failed to build query")
			}
			_, err = tx.Exec(ctx, query, args...)
			return errors.Wrapf(err, "unrecord migration %s", mig.Name)
		})
		if err != nil {
			return "", err
		}

		m.logger.Info("migration reverted", "name", mig.Name)
		return mig.Name, nil
	}
	return "", nil
}

// Status 列出每个迁移是否已应用
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Status, 0, len(m.migrations))
	for _, mig := range m.migrations {
		result = append(result, Status{Name: mig.Name, Applied: done[mig.Name]})
	}
	return result, nil
}
