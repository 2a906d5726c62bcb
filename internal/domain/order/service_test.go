package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/apperr"
	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/order"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/storage/memory"
)

var (
	now      = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	customer = access.Actor{UserID: "u1", Role: access.RoleCustomer}
	other    = access.Actor{UserID: "u2", Role: access.RoleCustomer}
	admin    = access.Actor{UserID: "admin", Role: access.RoleAdmin}
	contact  = order.Contact{FirstName: "Ada", LastName: "Lovelace", Phone: "+44 20 0000", Address: "12 St James's Sq"}
)

type fixture struct {
	repos  *memory.Repositories
	orders *order.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories()
	require.NoError(t, repos.Categories.Create(context.Background(), &catalog.Category{ID: "c1", Name: "Food", CreatedAt: now}))

	prices := pricing.NewResolver(repos.Discounts, pricing.WithClock(func() time.Time { return now }))
	svc, err := order.NewService(repos.Products, prices, repos.Orders, repos.Store)
	require.NoError(t, err)
	return &fixture{repos: repos, orders: svc}
}

func (f *fixture) product(t *testing.T, id, price string) {
	t.Helper()
	require.NoError(t, f.repos.Products.Create(context.Background(), &product.Product{
		ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), CategoryID: "c1", CreatedAt: now,
	}))
}

func (f *fixture) discount(t *testing.T, productID, pct string) string {
	t.Helper()
	d := &discount.Discount{
		ID:         "d-" + productID,
		Title:      "sale",
		ProductID:  productID,
		Percentage: decimal.RequireFromString(pct),
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		Active:     true,
	}
	require.NoError(t, f.repos.Discounts.Create(context.Background(), d))
	return d.ID
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	ctx := context.Background()

	_, err := f.orders.Create(ctx, customer, contact, nil)
	require.ErrorIs(t, err, order.ErrEmptyItems)

	_, err = f.orders.Create(ctx, customer, contact, []order.LineRequest{{ProductID: "p1", Quantity: 0}})
	var iqErr *order.InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.orders.Create(ctx, customer, contact, []order.LineRequest{{ProductID: "p1", Quantity: order.MaxQuantity + 1}})
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.orders.Create(ctx, customer, contact, []order.LineRequest{{ProductID: "p1", Quantity: order.MaxQuantity}})
	require.NoError(t, err)

	_, err = f.orders.Create(ctx, customer, contact, []order.LineRequest{{ProductID: "missing", Quantity: 1}})
	var pnfErr *order.ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	noPhone := contact
	noPhone.Phone = " "
	_, err = f.orders.Create(ctx, customer, noPhone, []order.LineRequest{{ProductID: "p1", Quantity: 1}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.orders.Create(ctx, access.Anonymous, contact, []order.LineRequest{{ProductID: "p1", Quantity: 1}})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	orders, err := f.repos.Orders.List(ctx, order.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreate_MaterializesTotals(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "100.00")
	f.product(t, "b", "50.00")
	f.discount(t, "a", "20")
	ctx := context.Background()

	o, err := f.orders.Create(ctx, customer, contact, []order.LineRequest{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, "u1", o.OwnerID())
	require.Len(t, o.Items, 2)
	assert.Equal(t, "160.00", o.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "Product a", o.Items[0].ProductName)
	assert.Equal(t, "50.00", o.Items[1].TotalPrice.StringFixed(2))
	assert.Equal(t, "210.00", o.OverallPrice().StringFixed(2))
}

func TestCreate_TotalsAreFrozen(t *testing.T) {
	f := newFixture(t)
	f.product(t, "a", "100.00")
	discountID := f.discount(t, "a", "20")
	ctx := context.Background()

	o, err := f.orders.Create(ctx, customer, contact, []order.LineRequest{{ProductID: "a", Quantity: 2}})
	require.NoError(t, err)

	p, err := f.repos.Products.GetByID(ctx, "a")
	require.NoError(t, err)
	p.Price = decimal.RequireFromString("500.00")
	require.NoError(t, f.repos.Products.Update(ctx, p))
	require.NoError(t, f.repos.Discounts.Delete(ctx, discountID))

	got, err := f.orders.Get(ctx, customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "160.00", got.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "160.00", got.OverallPrice().StringFixed(2))

	// Deleting the product detaches the line but keeps its snapshot.
	require.NoError(t, f.repos.Products.Delete(ctx, "a"))
	got, err = f.orders.Get(ctx, customer, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Items[0].ProductID)
	assert.Equal(t, "Product a", got.Items[0].ProductName)
	assert.Equal(t, "160.00", got.OverallPrice().StringFixed(2))
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	ctx := context.Background()

	o, err := f.orders.Create(ctx, customer, contact, []order.LineRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	_, err = f.orders.SetStatus(ctx, customer, o.ID, order.StatusCompleted)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	// Admins may set any known status in any order.
	for _, next := range []order.Status{
		order.StatusPending,
		order.StatusCompleted,
		order.StatusCancelled,
		order.StatusPending,
		order.StatusDelivering,
		order.StatusPending,
	} {
		got, err := f.orders.SetStatus(ctx, admin, o.ID, next)
		require.NoError(t, err, next)
		assert.Equal(t, next, got.Status)

		stored, err := f.orders.Get(ctx, customer, o.ID)
		require.NoError(t, err)
		assert.Equal(t, next, stored.Status)
	}

	_, err = f.orders.SetStatus(ctx, admin, o.ID, order.Status("lost"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.orders.SetStatus(ctx, admin, "missing", order.StatusCancelled)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "delivering", "completed", "cancelled"} {
		got, err := order.ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, order.Status(s), got)
	}
	_, err := order.ParseStatus("Pending")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGet_AnonymousForbiddenBeforeLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.Get(ctx, access.Anonymous, "missing")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.orders.Get(ctx, customer, "missing")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestListAndGet_Ownership(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	ctx := context.Background()

	mine, err := f.orders.Create(ctx, customer, contact, []order.LineRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, other, contact, []order.LineRequest{{ProductID: "p1", Quantity: 3}})
	require.NoError(t, err)

	list, err := f.orders.List(ctx, customer, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	all, err := f.orders.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.orders.Get(ctx, other, mine.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.orders.List(ctx, access.Anonymous, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.True(t, apperr.Is(f.orders.Delete(ctx, customer, mine.ID), apperr.KindForbidden))
	require.NoError(t, f.orders.Delete(ctx, admin, mine.ID))
	_, err = f.orders.Get(ctx, admin, mine.ID)
	require.ErrorIs(t, err, order.ErrNotFound)
}
