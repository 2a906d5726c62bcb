package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/product"
)

func seed(t *testing.T) *Repositories {
	t.Helper()
	ctx := context.Background()
	r := NewRepositories()
	require.NoError(t, r.Categories.Create(ctx, &catalog.Category{ID: "c1", Name: "Kitchen"}))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []product.Product{
		{ID: "kettle", Name: "Kettle", Brand: "Bosch", Price: decimal.NewFromInt(40), Rating: decimal.RequireFromString("4.2"), IsAvailable: true},
		{ID: "pan", Name: "Frying pan", Brand: "Tefal", Price: decimal.NewFromInt(25), Rating: decimal.RequireFromString("4.8"), IsAvailable: true},
		{ID: "knife", Name: "Chef knife", Brand: "Wusthof", Price: decimal.NewFromInt(90), Rating: decimal.RequireFromString("3.9")},
	} {
		p.CategoryID = "c1"
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, r.Products.Create(ctx, &p))
	}
	return r
}

func ids(products []product.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestProductList(t *testing.T) {
	r := seed(t)
	ctx := context.Background()
	yes := true
	ceiling := decimal.NewFromInt(50)

	tests := []struct {
		name   string
		filter product.Filter
		want   []string
	}{
		{"default ordering is best rated first", product.Filter{}, []string{"pan", "kettle", "knife"}},
		{"price ascending", product.Filter{Ordering: product.OrderByPrice}, []string{"pan", "kettle", "knife"}},
		{"price descending", product.Filter{Ordering: product.OrderByPriceDesc}, []string{"knife", "kettle", "pan"}},
		{"newest first", product.Filter{Ordering: product.OrderByCreatedAtDesc}, []string{"knife", "pan", "kettle"}},
		{"search brand", product.Filter{Search: "TEFAL"}, []string{"pan"}},
		{"search category name", product.Filter{Search: "kitch"}, []string{"pan", "kettle", "knife"}},
		{"available only", product.Filter{Available: &yes, Ordering: product.OrderByRating}, []string{"kettle", "pan"}},
		{"max price", product.Filter{MaxPrice: &ceiling, Ordering: product.OrderByPrice}, []string{"pan", "kettle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Products.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestWithTransaction_Rollback(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	err := r.Store.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, r.Products.SetRating(ctx, "kettle", decimal.NewFromInt(1)))
		require.NoError(t, r.Products.Delete(ctx, "pan"))
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	p, err := r.Products.GetByID(ctx, "kettle")
	require.NoError(t, err)
	assert.Equal(t, "4.2", p.Rating.String())
	_, err = r.Products.GetByID(ctx, "pan")
	require.NoError(t, err)
}

func TestWithTransaction_Nested(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	err := r.Store.WithTransaction(ctx, func(ctx context.Context) error {
		return r.Store.WithTransaction(ctx, func(ctx context.Context) error {
			return r.Products.SetRating(ctx, "knife", decimal.NewFromInt(5))
		})
	})
	require.NoError(t, err)

	p, err := r.Products.GetByID(ctx, "knife")
	require.NoError(t, err)
	assert.Equal(t, "5", p.Rating.String())
}

func TestAddItem_ConcurrentMerge(t *testing.T) {
	r := seed(t)
	ctx := context.Background()
	c, err := r.Carts.GetOrCreate(ctx, "u1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Carts.AddItem(ctx, c.ID, "kettle", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := r.Carts.Items(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Quantity)

	again, err := r.Carts.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
}

func TestUpdate_PreservesRating(t *testing.T) {
	r := seed(t)
	ctx := context.Background()

	p, err := r.Products.GetByID(ctx, "pan")
	require.NoError(t, err)
	p.Rating = decimal.Zero
	p.Name = "Skillet"
	require.NoError(t, r.Products.Update(ctx, p))

	got, err := r.Products.GetByID(ctx, "pan")
	require.NoError(t, err)
	assert.Equal(t, "Skillet", got.Name)
	assert.Equal(t, "4.8", got.Rating.String())
}
