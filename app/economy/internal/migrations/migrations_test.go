package migrations

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := Load(FS, Root)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, "001_schema.sql", migrations[0].Name)
	assert.Contains(t, migrations[0].Up, "CHECK (is_dead = (health = 0))")
	assert.Contains(t, migrations[0].Up, "WHERE NOT is_dead")
	assert.Contains(t, migrations[0].Down, "DROP TABLE IF EXISTS has_accessory")
	assert.NotContains(t, migrations[0].Up, "DROP TABLE")
	// ants 与 price 按 int64 读写，列宽必须一致
	assert.Regexp(t, `ants\s+BIGINT NOT NULL`, migrations[0].Up)
	assert.Regexp(t, `price\s+BIGINT NOT NULL`, migrations[0].Up)

	assert.Equal(t, "002_seed_catalog.sql", migrations[1].Name)
}

func TestSeedMatchesMigration(t *testing.T) {
	migrations, err := Load(FS, Root)
	require.NoError(t, err)

	seed := migrations[1].Up
	for _, a := range SeedCatalog() {
		assert.Contains(t, seed, "'"+a.Name+"'", a.Name)
		assert.Equal(t, "hat", a.Type)
	}
}

func TestLoadOrdersAndSplits(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_b.sql":  {Data: []byte("-- +migrate Up\nSELECT 2;\n-- +migrate Down\nSELECT -2;")},
		"m/001_a.sql":  {Data: []byte("SELECT 1;")},
		"m/readme.txt": {Data: []byte("ignored")},
	}

	migrations, err := Load(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, "001_a.sql", migrations[0].Name)
	assert.Equal(t, "SELECT 1;", migrations[0].Up)
	assert.Empty(t, migrations[0].Down)

	assert.Equal(t, "SELECT 2;", migrations[1].Up)
	assert.Equal(t, "SELECT -2;", strings.TrimSpace(migrations[1].Down))
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "absent")
	assert.Error(t, err)
}
