package service

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/smallbiznis/eshop/internal/clock"
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/internal/events"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	lineitemrepository "github.com/smallbiznis/eshop/internal/lineitem/repository"
	"github.com/smallbiznis/eshop/internal/observability/metrics"
	"github.com/smallbiznis/eshop/internal/order/domain"
	"github.com/smallbiznis/eshop/internal/order/repository"
	supplierdomain "github.com/smallbiznis/eshop/internal/supplier/domain"
	supplierrepository "github.com/smallbiznis/eshop/internal/supplier/repository"
	suppliersvc "github.com/smallbiznis/eshop/internal/supplier/service"
	"github.com/smallbiznis/eshop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	pub   *testutil.Publisher
}

func newFixture(t *testing.T, policy config.Policy) fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	pub := &testutil.Publisher{}
	m := metrics.Noop()
	emitter := events.NewEmitter(pub, zap.NewNop(), m)
	holder := config.NewStaticPolicyHolder(policy)

	suppliers := suppliersvc.New(suppliersvc.Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clk,
		Repo:   supplierrepository.Provide(),
		Policy: holder,
	})

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clk,
		Repo:      repository.Provide(),
		LineItems: lineitemrepository.Provide(),
		Suppliers: suppliers,
		Policy:    holder,
		Metrics:   m,
		Events:    emitter,
	})
	return fixture{svc: svc, db: db, clock: clk, pub: pub}
}

func item(name string, qty int64, price, tax float64) lineitemdomain.Input {
	return lineitemdomain.Input{ItemName: name, Quantity: qty, PriceWithoutTax: price, TaxName: "VAT", TaxAmount: tax}
}

func withID(in lineitemdomain.Input, id string) lineitemdomain.Input {
	in.ID = &id
	return in
}

func supplierInput(name string) *domain.SupplierInput {
	return &domain.SupplierInput{Name: name, Email: "e@x.com"}
}

func (f fixture) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table(table).Count(&n).Error)
	return n
}

func TestCreateAssignsNumberAndTotals(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1)},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, resp.OrderNumber)
	assert.True(t, f.clock.Now().Equal(resp.OrderTime))
	assert.EqualValues(t, 1, resp.TotalQuantity)
	assert.Equal(t, 11.0, resp.TotalAmount)
	assert.Equal(t, 1.0, resp.TotalTax)
	require.Len(t, resp.LineItems, 1)
	assert.Equal(t, 11.0, resp.LineItems[0].LineTotal)
	assert.Equal(t, "S", resp.Supplier.Name)

	second, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("B", 2, 1, 0)},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.OrderNumber)
	assert.Equal(t, []events.Type{events.OrderCreated, events.OrderCreated}, f.pub.Types())
}

func TestCreateRejectsMissingPayloadWithoutWriting(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{LineItems: []lineitemdomain.Input{item("A", 1, 1, 0)}})
	assert.ErrorIs(t, err, domain.ErrMissingSupplier)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{Supplier: supplierInput("S")})
	assert.ErrorIs(t, err, domain.ErrMissingLineItems)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 1, 0), item("B", -1, 1, 0)},
	})
	assert.ErrorIs(t, err, lineitemdomain.ErrInvalidQuantity)
	var lineErr *domain.LineItemError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Index)

	for _, table := range []string{"suppliers", "orders", "line_items"} {
		assert.Zerof(t, f.count(t, table), "%s should be untouched", table)
	}
	assert.Empty(t, f.pub.Events())
}

func TestCreateRollsBackOnFailureAndKeepsSequence(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	unknown := "987654321"
	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  &domain.SupplierInput{ID: &unknown, Name: "S", Email: "e@x.com"},
		LineItems: []lineitemdomain.Input{item("A", 1, 1, 0)},
	})
	assert.ErrorIs(t, err, supplierdomain.ErrUnknownSupplier)
	assert.Zero(t, f.count(t, "orders"))

	resp, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 1, 0)},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.OrderNumber)
}

func TestTooManyLineItemsFollowsPolicy(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.MaxLineItems = 2
	f := newFixture(t, policy)

	_, err := f.svc.Create(context.Background(), domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 1, 0), item("B", 1, 1, 0), item("C", 1, 1, 0)},
	})
	assert.ErrorIs(t, err, domain.ErrTooManyLineItems)
}

func TestCreateRejectsAmountsThatOverflowTotals(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.MaxLineItems = 1000
	f := newFixture(t, policy)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 1e308, 1e308)},
	})
	assert.ErrorIs(t, err, lineitemdomain.ErrInvalidPriceWithoutTax)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", math.MaxInt64, 1, 0), item("B", 1, 1, 0)},
	})
	assert.ErrorIs(t, err, lineitemdomain.ErrInvalidQuantity)

	large := make([]lineitemdomain.Input, 0, 501)
	for i := 0; i < 501; i++ {
		large = append(large, item("A", 1, lineitemdomain.MaxAmount, lineitemdomain.MaxAmount))
	}
	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{Supplier: supplierInput("S"), LineItems: large})
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)

	for _, table := range []string{"suppliers", "orders", "line_items"} {
		assert.Zerof(t, f.count(t, table), "%s should be untouched", table)
	}

	resp, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", lineitemdomain.MaxQuantity, lineitemdomain.MaxAmount, lineitemdomain.MaxAmount)},
	})
	require.NoError(t, err)
	_, err = json.Marshal(resp)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, domain.ListOrderRequest{})
	require.NoError(t, err)
	_, err = json.Marshal(list)
	require.NoError(t, err)
}

func TestUpdateRejectsAmountsThatOverflowTotals(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.MaxLineItems = 1000
	f := newFixture(t, policy)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1)},
	})
	require.NoError(t, err)

	large := make([]lineitemdomain.Input, 0, 501)
	for i := 0; i < 501; i++ {
		large = append(large, item("A", 1, lineitemdomain.MaxAmount, lineitemdomain.MaxAmount))
	}
	_, err = f.svc.Update(ctx, domain.UpdateOrderRequest{ID: created.ID.String(), Partial: true, LineItems: large})
	assert.ErrorIs(t, err, domain.ErrAmountOutOfRange)

	got, err := f.svc.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 11.0, got.TotalAmount)
	require.Len(t, got.LineItems, 1)
}

func TestCheckTotalsGuardsQuantityOverflow(t *testing.T) {
	err := domain.CheckTotals([]lineitemdomain.Input{item("A", math.MaxInt64, 1, 0), item("B", 1, 1, 0)})
	assert.ErrorIs(t, err, domain.ErrQuantityOutOfRange)

	err = domain.CheckTotals([]lineitemdomain.Input{item("A", math.MaxInt64-1, 1, 0), item("B", 1, 1, 0)})
	assert.NoError(t, err)

	assert.NoError(t, domain.CheckTotals(nil))
}

func TestUpdateReconcilesLineItems(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1), item("B", 2, 5, 0.5)},
	})
	require.NoError(t, err)
	keep := created.LineItems[0].ID.String()
	dropped := created.LineItems[1].ID

	f.clock.Advance(time.Hour)
	updated, err := f.svc.Update(ctx, domain.UpdateOrderRequest{
		ID:       created.ID.String(),
		Supplier: &domain.SupplierInput{ID: ptr(created.Supplier.ID.String()), Name: "S renamed", Email: "e@x.com"},
		LineItems: []lineitemdomain.Input{
			withID(item("A2", 3, 10, 1), keep),
			item("C", 1, 0.1, 0.2),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, created.OrderNumber, updated.OrderNumber)
	assert.True(t, created.OrderTime.Equal(updated.OrderTime))
	assert.Equal(t, created.Supplier.ID, updated.Supplier.ID)
	assert.Equal(t, "S renamed", updated.Supplier.Name)

	require.Len(t, updated.LineItems, 2)
	names := map[string]lineitemdomain.Response{}
	for _, li := range updated.LineItems {
		names[li.ItemName] = li
		assert.NotEqual(t, dropped, li.ID)
	}
	assert.Equal(t, keep, names["A2"].ID.String())
	assert.EqualValues(t, 3, names["A2"].Quantity)

	assert.EqualValues(t, 4, updated.TotalQuantity)
	assert.Equal(t, 11.3, updated.TotalAmount)
	assert.Equal(t, 1.2, updated.TotalTax)
	assert.EqualValues(t, 2, f.count(t, "line_items"))

	again, err := f.svc.Update(ctx, domain.UpdateOrderRequest{
		ID:       created.ID.String(),
		Supplier: &domain.SupplierInput{ID: ptr(created.Supplier.ID.String()), Name: "S renamed", Email: "e@x.com"},
		LineItems: []lineitemdomain.Input{
			withID(item("A2", 3, 10, 1), keep),
			withID(item("C", 1, 0.1, 0.2), names["C"].ID.String()),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, idsOf(updated.LineItems), idsOf(again.LineItems))
	assert.Equal(t, updated.TotalAmount, again.TotalAmount)
}

func TestUpdateEmptyListClearsItems(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1)},
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, domain.UpdateOrderRequest{
		ID:        created.ID.String(),
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.LineItems)
	assert.Zero(t, updated.TotalQuantity)
	assert.Zero(t, updated.TotalAmount)
	assert.NotEqual(t, created.Supplier.ID, updated.Supplier.ID)
}

func TestPutRequiresSupplierAndLineItems(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1)},
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, domain.UpdateOrderRequest{ID: created.ID.String(), LineItems: []lineitemdomain.Input{}})
	assert.ErrorIs(t, err, domain.ErrMissingSupplier)

	_, err = f.svc.Update(ctx, domain.UpdateOrderRequest{ID: created.ID.String(), Supplier: supplierInput("S")})
	assert.ErrorIs(t, err, domain.ErrMissingLineItems)
}

func TestPatchLeavesAbsentPartsUnchanged(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1)},
	})
	require.NoError(t, err)

	patched, err := f.svc.Update(ctx, domain.UpdateOrderRequest{ID: created.ID.String(), Partial: true})
	require.NoError(t, err)
	assert.Equal(t, created.Supplier.ID, patched.Supplier.ID)
	assert.Equal(t, idsOf(created.LineItems), idsOf(patched.LineItems))

	patched, err = f.svc.Update(ctx, domain.UpdateOrderRequest{
		ID:        created.ID.String(),
		Partial:   true,
		LineItems: []lineitemdomain.Input{item("B", 5, 1, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, created.Supplier.ID, patched.Supplier.ID)
	require.Len(t, patched.LineItems, 1)
	assert.Equal(t, "B", patched.LineItems[0].ItemName)
}

func TestUpdateRejectsForeignLineItem(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	first, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1)},
	})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("T"),
		LineItems: []lineitemdomain.Input{item("B", 1, 10, 1)},
	})
	require.NoError(t, err)

	foreign := first.LineItems[0].ID.String()
	_, err = f.svc.Update(ctx, domain.UpdateOrderRequest{
		ID:        second.ID.String(),
		Supplier:  supplierInput("T"),
		LineItems: []lineitemdomain.Input{withID(item("stolen", 9, 1, 0), foreign)},
	})
	assert.ErrorIs(t, err, domain.ErrLineItemNotOwned)

	stillFirst, err := f.svc.Get(ctx, first.ID.String())
	require.NoError(t, err)
	require.Len(t, stillFirst.LineItems, 1)
	assert.Equal(t, "A", stillFirst.LineItems[0].ItemName)

	stillSecond, err := f.svc.Get(ctx, second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, idsOf(second.LineItems), idsOf(stillSecond.LineItems))
	assert.EqualValues(t, 2, f.count(t, "suppliers"))
}

func TestUpdateRejectsDuplicateIDsAndCreatesUnknownIDs(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1)},
	})
	require.NoError(t, err)
	id := created.LineItems[0].ID.String()

	_, err = f.svc.Update(ctx, domain.UpdateOrderRequest{
		ID:        created.ID.String(),
		Partial:   true,
		LineItems: []lineitemdomain.Input{withID(item("A", 1, 1, 0), id), withID(item("A", 1, 1, 0), id)},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateLineItem)

	updated, err := f.svc.Update(ctx, domain.UpdateOrderRequest{
		ID:        created.ID.String(),
		Partial:   true,
		LineItems: []lineitemdomain.Input{withID(item("New", 1, 1, 0), "42")},
	})
	require.NoError(t, err)
	require.Len(t, updated.LineItems, 1)
	assert.NotEqual(t, "42", updated.LineItems[0].ID.String())
	assert.Equal(t, "New", updated.LineItems[0].ItemName)
}

func TestUpdateIgnoresMissingOrder(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())

	_, err := f.svc.Update(context.Background(), domain.UpdateOrderRequest{ID: "12345", Partial: true})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestDeleteCascadesToLineItemsOnly(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		Supplier:  supplierInput("S"),
		LineItems: []lineitemdomain.Input{item("A", 1, 10, 1), item("B", 1, 10, 1)},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID.String()))
	assert.Zero(t, f.count(t, "orders"))
	assert.Zero(t, f.count(t, "line_items"))
	assert.EqualValues(t, 1, f.count(t, "suppliers"))

	_, err = f.svc.Get(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID.String()), domain.ErrNotFound)
	assert.Equal(t, events.OrderDeleted, f.pub.Types()[len(f.pub.Types())-1])
}

func TestListFiltersAndOrdersByOrderTime(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy())
	ctx := context.Background()

	mk := func(supplier string, items ...lineitemdomain.Input) domain.Response {
		resp, err := f.svc.Create(ctx, domain.CreateOrderRequest{Supplier: supplierInput(supplier), LineItems: items})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
		return resp
	}
	acmeBolts := mk("Acme", item("Bolt", 1, 1, 0), item("Bolt washer", 1, 1, 0))
	acmeNuts := mk("Acme", item("Nut", 1, 1, 0))
	zedBolts := mk("Zed 50%", item("bolt", 1, 1, 0))

	all, err := f.svc.List(ctx, domain.ListOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{zedBolts.ID.String(), acmeNuts.ID.String(), acmeBolts.ID.String()}, orderIDs(all.Orders))

	bolts, err := f.svc.List(ctx, domain.ListOrderRequest{ItemName: "BOLT"})
	require.NoError(t, err)
	assert.Equal(t, []string{zedBolts.ID.String(), acmeBolts.ID.String()}, orderIDs(bolts.Orders))
	assert.Len(t, bolts.Orders[1].LineItems, 2)

	acme, err := f.svc.List(ctx, domain.ListOrderRequest{SupplierName: "acm", ItemName: "bolt"})
	require.NoError(t, err)
	assert.Equal(t, []string{acmeBolts.ID.String()}, orderIDs(acme.Orders))

	pct, err := f.svc.List(ctx, domain.ListOrderRequest{SupplierName: "%"})
	require.NoError(t, err)
	assert.Equal(t, []string{zedBolts.ID.String()}, orderIDs(pct.Orders))

	page, err := f.svc.List(ctx, domain.ListOrderRequest{PageSize: 2})
	require.NoError(t, err)
	require.True(t, page.HasMore)
	next, err := f.svc.List(ctx, domain.ListOrderRequest{PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	assert.Equal(t, []string{acmeBolts.ID.String()}, orderIDs(next.Orders))
	assert.False(t, next.HasMore)
}

func TestComputeTotalsMatchesLineItems(t *testing.T) {
	items := []lineitemdomain.LineItem{
		{Quantity: 2, PriceWithoutTax: 10.1, TaxAmount: 0.2},
		{Quantity: 3, PriceWithoutTax: 0.1, TaxAmount: 0.1},
	}
	totals := domain.ComputeTotals(items)
	assert.EqualValues(t, 5, totals.Quantity)
	assert.Equal(t, 10.5, totals.Amount)
	assert.Equal(t, 0.3, totals.Tax)

	assert.Equal(t, domain.Totals{}, domain.ComputeTotals(nil))
}

func ptr(s string) *string { return &s }

func idsOf(items []lineitemdomain.Response) []string {
	out := make([]string, 0, len(items))
	for _, li := range items {
		out = append(out, li.ID.String())
	}
	return out
}

func orderIDs(orders []domain.Response) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID.String())
	}
	return out
}
