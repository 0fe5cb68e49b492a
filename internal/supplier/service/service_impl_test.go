package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/internal/cache"
	"github.com/smallbiznis/eshop/internal/clock"
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/internal/events"
	"github.com/smallbiznis/eshop/internal/observability/metrics"
	"github.com/smallbiznis/eshop/internal/supplier/domain"
	"github.com/smallbiznis/eshop/internal/supplier/repository"
	"github.com/smallbiznis/eshop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   *Service
	db    *gorm.DB
	clock *clock.FakeClock
	store cache.Store
	pub   *testutil.Publisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := cache.NewMemoryStore()
	pub := &testutil.Publisher{}
	m := metrics.Noop()

	cfg := config.Config{Cache: config.CacheConfig{SupplierTTLSecs: 60}}
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   testutil.Node(t),
		Clock:   clk,
		Repo:    repository.Provide(),
		Config:  cfg,
		Policy:  config.NewStaticPolicyHolder(config.DefaultPolicy()),
		Cache:   store,
		Metrics: m,
		Events:  events.NewEmitter(pub, zap.NewNop(), m),
	})
	return fixture{svc: svc, db: db, clock: clk, store: store, pub: pub}
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateSupplierRequest{Name: "  ", Email: "a@b.test"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.Create(ctx, domain.CreateSupplierRequest{Name: "Acme", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	created, err := f.svc.Create(ctx, domain.CreateSupplierRequest{Name: " Acme ", Email: " sales@acme.test "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Name)
	assert.Equal(t, "sales@acme.test", created.Email)
	assert.NotZero(t, created.ID)
}

func TestResolveCreatesUpdatesAndRejectsUnknownIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Resolve(ctx, f.db, domain.UpsertInput{Name: "S", Email: "e@x.com"})
	require.NoError(t, err)

	id := created.ID.String()
	f.clock.Advance(time.Minute)
	updated, err := f.svc.Resolve(ctx, f.db, domain.UpsertInput{ID: &id, Name: "S2", Email: "e2@x.com"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "S2", updated.Name)

	stored, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "e2@x.com", stored.Email)

	unknown := "1234567890"
	_, err = f.svc.Resolve(ctx, f.db, domain.UpsertInput{ID: &unknown, Name: "S", Email: "e@x.com"})
	assert.ErrorIs(t, err, domain.ErrUnknownSupplier)

	malformed := "abc"
	_, err = f.svc.Resolve(ctx, f.db, domain.UpsertInput{ID: &malformed, Name: "S", Email: "e@x.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	var count int64
	require.NoError(t, f.db.Model(&domain.Supplier{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

type evictingRepo struct {
	domain.Repository
	onFind func()
}

func (r evictingRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Supplier, error) {
	item, err := r.Repository.FindByID(ctx, db, id)
	if r.onFind != nil {
		r.onFind()
	}
	return item, err
}

func TestGetByIDSkipsCacheFillAfterConcurrentEviction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateSupplierRequest{Name: "Acme", Email: "a@acme.test"})
	require.NoError(t, err)

	f.svc.repo = evictingRepo{
		Repository: f.svc.repo,
		onFind:     func() { f.svc.Evict(ctx, created.ID) },
	}
	got, err := f.svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	var cached domain.Supplier
	found, err := f.store.Get(ctx, cacheKey(created.ID), &cached)
	require.NoError(t, err)
	assert.False(t, found, "a read that raced an eviction must not repopulate the cache")

	f.svc.repo = repository.Provide()
	_, err = f.svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	found, err = f.store.Get(ctx, cacheKey(created.ID), &cached)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestGetByIDUsesCacheAndUpdateEvicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateSupplierRequest{Name: "Acme", Email: "a@acme.test"})
	require.NoError(t, err)

	_, err = f.svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)

	var cached domain.Supplier
	found, err := f.store.Get(ctx, cacheKey(created.ID), &cached)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Acme", cached.Name)

	name := "Acme Industrial"
	_, err = f.svc.Update(ctx, domain.UpdateSupplierRequest{ID: created.ID.String(), Name: &name})
	require.NoError(t, err)

	found, err = f.store.Get(ctx, cacheKey(created.ID), &cached)
	require.NoError(t, err)
	assert.False(t, found)

	got, err := f.svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Acme Industrial", got.Name)
	assert.Equal(t, "a@acme.test", got.Email)
}

func TestDeleteCascadesToOrdersAndLineItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateSupplierRequest{Name: "Acme", Email: "a@acme.test"})
	require.NoError(t, err)

	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO orders (id, supplier_id, order_number, order_time, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		10, created.ID, 1, now, now, now,
	).Error)
	require.NoError(t, f.db.Exec(
		`INSERT INTO line_items (id, order_id, item_name, quantity, price_without_tax, tax_name, tax_amount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		20, 10, "Bolt", 1, 1.5, "VAT", 0.2, now, now,
	).Error)

	require.NoError(t, f.svc.Delete(ctx, created.ID.String()))

	for _, table := range []string{"suppliers", "orders", "line_items"} {
		var count int64
		require.NoError(t, f.db.Table(table).Count(&count).Error)
		assert.Zerof(t, count, "%s should be empty", table)
	}
	assert.Equal(t, []events.Type{events.SupplierDeleted}, f.pub.Types())

	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID.String()), domain.ErrNotFound)
}

func TestListFiltersByNameAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Alpha Tools", "Beta Parts", "alpha_omega", "Gamma 100%"} {
		_, err := f.svc.Create(ctx, domain.CreateSupplierRequest{Name: name, Email: "x@y.test"})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	resp, err := f.svc.List(ctx, domain.ListSupplierRequest{Name: "ALPHA"})
	require.NoError(t, err)
	require.Len(t, resp.Suppliers, 2)
	assert.Equal(t, "alpha_omega", resp.Suppliers[0].Name)

	resp, err = f.svc.List(ctx, domain.ListSupplierRequest{Name: "%"})
	require.NoError(t, err)
	require.Len(t, resp.Suppliers, 1)
	assert.Equal(t, "Gamma 100%", resp.Suppliers[0].Name)

	first, err := f.svc.List(ctx, domain.ListSupplierRequest{PageSize: 3})
	require.NoError(t, err)
	require.Len(t, first.Suppliers, 3)
	require.True(t, first.HasMore)

	second, err := f.svc.List(ctx, domain.ListSupplierRequest{PageSize: 3, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Suppliers, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, "Alpha Tools", second.Suppliers[0].Name)

	_, err = f.svc.List(ctx, domain.ListSupplierRequest{PageToken: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
