package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/pocketzot/app/economy/internal/dao"
	"github.com/lk2023060901/pocketzot/app/economy/internal/metrics"
	"github.com/lk2023060901/pocketzot/app/economy/internal/migrations"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
	"github.com/lk2023060901/pocketzot/pkg/database/postgres"
	"github.com/lk2023060901/pocketzot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要可写的 PostgreSQL：POCKETZOT_TEST_DSN=postgres://postgres@localhost:5432/pocketzot_test?sslmode=disable
func newPostgresFixture(t *testing.T) (*fixture, *repository.PostgresStore) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	dsn := os.Getenv("POCKETZOT_TEST_DSN")
	if dsn == "" {
		t.Skip("POCKETZOT_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := postgres.DefaultConfig()
	cfg.DSN = dsn
	cfg.Standalone = nil
	cfg.Retry.InitialDelay = 5 * time.Millisecond
	cfg.Retry.MaxDelay = 50 * time.Millisecond
	cfg.Retry.MaxAttempts = 20
	db, err := postgres.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	l := logger.NewNoop()
	migrator, err := migrations.NewMigrator(db, l)
	require.NoError(t, err)
	_, err = migrator.Up(ctx)
	require.NoError(t, err)

	_, err = db.Exec(ctx, "TRUNCATE has_accessory, anteater, users RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	m, err := metrics.New(nil)
	require.NoError(t, err)
	store := repository.NewPostgresStore(db, repository.NewDAOs(
		dao.NewUserDAO(l, m),
		dao.NewAnteaterDAO(l, m),
		dao.NewAccessoryDAO(l, m),
		dao.NewOwnershipDAO(l, m),
	), l, m)
	cache := dao.NewCatalogCacheDAO(&dao.CatalogCacheConfig{Enabled: false}, nil, l, m)

	f := &fixture{
		metrics:   m,
		economy:   NewEconomyService(l, store, m),
		anteaters: NewAnteaterService(l, store, m),
		users:     NewUserService(l, store),
		shop:      NewAccessoryService(l, store, cache, m),
	}
	_, err = f.shop.SeedCatalog(ctx)
	require.NoError(t, err)
	return f, store
}

func TestPostgresConcurrentPurchases(t *testing.T) {
	f, store := newPostgresFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, "racer", "racer@example.com")
	require.NoError(t, err)
	require.NoError(t, store.UpdateUserAnts(ctx, u.ID, 25))
	crown, err := store.GetAccessoryByName(ctx, "Crown")
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.shop.Purchase(ctx, u.ID, crown.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if !errors.Is(err, ErrInsufficientResource) {
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, failures)
	assert.Equal(t, 1, succeeded)

	user, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.Ants)

	inv, err := store.ListInventory(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, inv, 1)
}

func TestPostgresConversionAndEquip(t *testing.T) {
	f, store := newPostgresFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, "zotter", "zotter@example.com")
	require.NoError(t, err)
	a, err := f.anteaters.CreateAnteater(ctx, u.ID, "zot")
	require.NoError(t, err)

	ps, err := f.economy.ApplyHealthEdit(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ps.Health)
	assert.Equal(t, int64(10), ps.Ants)

	plumber, err := store.GetAccessoryByName(ctx, "Plumber")
	require.NoError(t, err)
	merrier, err := store.GetAccessoryByName(ctx, "Merrier")
	require.NoError(t, err)

	first, err := f.shop.Purchase(ctx, u.ID, plumber.ID)
	require.NoError(t, err)
	second, err := f.shop.Purchase(ctx, u.ID, merrier.ID)
	require.NoError(t, err)

	_, err = f.shop.Equip(ctx, first.ID)
	require.NoError(t, err)
	_, err = f.shop.Equip(ctx, second.ID)
	require.NoError(t, err)

	equipped, err := store.ListEquipped(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, equipped, 1)
	assert.Equal(t, second.ID, equipped[0].ID)

	ps, err = f.economy.ApplyAntStep(ctx, u.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(64), ps.Health)
	assert.Equal(t, int64(0), ps.Ants)

	_, err = f.anteaters.CreateAnteater(ctx, u.ID, "extra")
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
}
