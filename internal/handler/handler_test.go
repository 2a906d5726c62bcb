package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/auth"
	"github.com/xenking/local-market/internal/domain/cart"
	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/order"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/review"
	"github.com/xenking/local-market/internal/domain/user"
	"github.com/xenking/local-market/internal/domain/wishlist"
	"github.com/xenking/local-market/internal/handler"
	"github.com/xenking/local-market/internal/storage/memory"
)

const (
	adminKey    = "admin-secret-key"
	customerKey = "customer-secret-key"
)

var (
	pepper    = []byte("test-pepper")
	jwtSecret = []byte("test-jwt-secret")
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	t      *testing.T
	router *gin.Engine
	repos  *memory.Repositories
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewRepositories()
	now := time.Now().UTC()

	require.NoError(t, repos.Users.Create(ctx, &user.User{ID: "u-admin", Username: "root", Role: access.RoleAdmin, CreatedAt: now}))
	require.NoError(t, repos.Users.Create(ctx, &user.User{ID: "u-cust", Username: "ada", Role: access.RoleCustomer, CreatedAt: now}))
	require.NoError(t, repos.APIKeys.Create(ctx, &auth.APIKeyInfo{ID: "k1", KeyHash: auth.HashKey(pepper, adminKey), Name: "admin", UserID: "u-admin"}))
	require.NoError(t, repos.APIKeys.Create(ctx, &auth.APIKeyInfo{ID: "k2", KeyHash: auth.HashKey(pepper, customerKey), Name: "ada", UserID: "u-cust"}))

	require.NoError(t, repos.Categories.Create(ctx, &catalog.Category{ID: "c1", Name: "Kitchen", CreatedAt: now}))
	for id, price := range map[string]string{"a": "100.00", "b": "50.00"} {
		require.NoError(t, repos.Products.Create(ctx, &product.Product{
			ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price),
			Amount: 10, IsAvailable: true, CategoryID: "c1", CreatedAt: now,
		}))
	}
	require.NoError(t, repos.Discounts.Create(ctx, &discount.Discount{
		ID: "d1", Title: "spring", ProductID: "a", Percentage: decimal.NewFromInt(20),
		StartDate: now.Add(-time.Hour), EndDate: now.Add(24 * time.Hour), Active: true, CreatedAt: now,
	}))

	prices := pricing.NewResolver(repos.Discounts)
	orders, err := order.NewService(repos.Products, prices, repos.Orders, repos.Store)
	require.NoError(t, err)

	svc := handler.Services{
		Catalog:   catalog.NewService(repos.Banners, repos.Categories, repos.Images, repos.Products),
		Products:  product.NewService(repos.Products, repos.Categories),
		Prices:    prices,
		Discounts: discount.NewService(repos.Discounts, repos.Products, repos.Store),
		Carts:     cart.NewService(repos.Carts, repos.Products, prices, orders, repos.Store),
		Orders:    orders,
		Reviews:   review.NewService(repos.Reviews, repos.Products, repos.Store),
		Wishlists: wishlist.NewService(repos.Wishlists, repos.Products),
		Users:     user.NewService(repos.Users),
	}
	authn := handler.NewAuthenticator(repos.APIKeys, repos.Users, pepper, jwtSecret)
	h := handler.New(handler.Config{ImageBaseURL: "https://cdn.example.com/"}, svc, authn)
	return &server{t: t, router: h.Router(), repos: repos}
}

func (s *server) do(method, path, key string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf *bytes.Reader
	switch b := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(handler.APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(&v))
	return v
}

type errorResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type productResp struct {
	ID              string      `json:"id"`
	Price           json.Number `json:"price"`
	DiscountedPrice json.Number `json:"discounted_price"`
	ActiveDiscount  *struct {
		ID string `json:"id"`
	} `json:"active_discount"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type cartResp struct {
	Items []struct {
		ID        string      `json:"id"`
		ProductID string      `json:"product_id"`
		Quantity  int         `json:"quantity"`
		Total     json.Number `json:"total"`
	} `json:"items"`
	Total json.Number `json:"total"`
}

type orderResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Items  []struct {
		ProductID  string      `json:"product_id"`
		Quantity   int         `json:"quantity"`
		TotalPrice json.Number `json:"total_price"`
	} `json:"items"`
	OverallPrice json.Number `json:"overall_price"`
}

var checkoutBody = map[string]string{
	"first_name": "Ada",
	"last_name":  "Lovelace",
	"phone":      "555-0101",
	"address":    "12 St James's Square",
}

func TestProducts_AnonymousReadOnly(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/products?ordering=price", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[[]productResp](t, rec)
	require.Len(t, products, 2)
	assert.Equal(t, "b", products[0].ID)
	assert.Equal(t, "a", products[1].ID)
	assert.Equal(t, "100.00", products[1].Price.String())
	assert.Equal(t, "80.00", products[1].DiscountedPrice.String())
	require.NotNil(t, products[1].ActiveDiscount)
	assert.Equal(t, "d1", products[1].ActiveDiscount.ID)
	assert.Nil(t, products[0].ActiveDiscount)

	rec = s.do(http.MethodPost, "/api/products", "", map[string]any{
		"name": "Kettle", "price": "20.00", "category_id": "c1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusForbidden, decode[errorResp](t, rec).Code)
}

func TestProducts_InvalidQuery(t *testing.T) {
	s := newServer(t)

	for _, q := range []string{"ordering=name", "min_price=cheap", "available=maybe"} {
		rec := s.do(http.MethodGet, "/api/products?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	rec := s.do(http.MethodGet, "/api/products?min_price=10&max_price=5", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProducts_AdminCreateWithImage(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/products", adminKey, map[string]any{
		"name": "Kettle", "brand": "Acme", "price": "19.999", "amount": 3, "category_id": "c1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[productResp](t, rec)
	assert.Equal(t, "20.00", created.Price.String())

	rec = s.do(http.MethodPost, "/api/products/"+created.ID+"/images", adminKey, map[string]string{"path": "/kettle.png"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/products/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[productResp](t, rec)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "https://cdn.example.com/kettle.png", got.Images[0].URL)

	rec = s.do(http.MethodPost, "/api/products", adminKey, map[string]any{
		"name": "Ghost", "price": "1.00", "category_id": "missing",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuth_Failures(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/products", "not-a-key", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_BearerToken(t *testing.T) {
	s := newServer(t)

	sign := func(secret []byte, sub string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		raw, err := token.SignedString(secret)
		require.NoError(t, err)
		return raw
	}
	get := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	rec := get(sign(jwtSecret, "u-cust"))
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "ada", me["username"])
	assert.Equal(t, "customer", me["role"])

	assert.Equal(t, http.StatusUnauthorized, get(sign([]byte("wrong"), "u-cust")).Code)
	assert.Equal(t, http.StatusUnauthorized, get(sign(jwtSecret, "u-ghost")).Code)
}

func TestUsers_ListAdminOnly(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/users", customerKey, nil).Code)

	rec := s.do(http.MethodGet, "/api/users", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)
}

func TestUsers_ProfileAndAccountDeletion(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPatch, "/api/users/me", "", map[string]any{"city": "Paris"}).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodDelete, "/api/users/me", "", nil).Code)

	rec := s.do(http.MethodPatch, "/api/users/me", customerKey, map[string]any{"first_name": "Ada", "city": "London"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "Ada", me["first_name"])
	assert.Equal(t, "London", me["city"])
	assert.Equal(t, "ada", me["username"])

	rec = s.do(http.MethodPatch, "/api/users/me", customerKey, map[string]any{"phone": strings.Repeat("9", 21)})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/orders", customerKey, map[string]any{
		"first_name": "Ada", "last_name": "Lovelace", "phone": "555-0101", "address": "London",
		"items": []map[string]any{{"product_id": "b", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderID := decode[orderResp](t, rec).ID

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/users/me", customerKey, nil).Code)

	// The account's key is gone with it.
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/me", customerKey, nil).Code)

	rec = s.do(http.MethodGet, "/api/orders/"+orderID, adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Nil(t, got["user_id"])
	assert.Equal(t, json.Number("50.00"), got["overall_price"])

	rec = s.do(http.MethodGet, "/api/users", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestCart_CheckoutFlow(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/cart/items", customerKey, map[string]any{"product_id": "a", "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/api/cart/items", customerKey, map[string]any{"product_id": "a", "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/api/cart/items", customerKey, map[string]any{"product_id": "b", "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/cart", customerKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[cartResp](t, rec)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "210.00", c.Total.String())
	for _, it := range c.Items {
		if it.ProductID == "a" {
			assert.Equal(t, 2, it.Quantity)
			assert.Equal(t, "160.00", it.Total.String())
		}
	}

	rec = s.do(http.MethodPost, "/api/cart/checkout", customerKey, checkoutBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decode[orderResp](t, rec)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "210.00", o.OverallPrice.String())
	totals := map[string]string{}
	for _, it := range o.Items {
		totals[it.ProductID] = it.TotalPrice.String()
	}
	assert.Equal(t, map[string]string{"a": "160.00", "b": "50.00"}, totals)

	rec = s.do(http.MethodGet, "/api/cart", customerKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResp](t, rec).Items)

	rec = s.do(http.MethodPost, "/api/cart/checkout", customerKey, checkoutBody)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/api/orders/"+o.ID, customerKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "210.00", decode[orderResp](t, rec).OverallPrice.String())
}

func TestCart_RequestErrors(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/cart/items", customerKey, `{"product_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/cart/items", customerKey, map[string]any{"product_id": "a", "quantity": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/cart/items", customerKey, map[string]any{"product_id": "nope", "quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrders_StatusChangeAdminOnly(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/orders", customerKey, map[string]any{
		"first_name": "Ada", "last_name": "Lovelace", "phone": "555-0101", "address": "London",
		"items": []map[string]any{{"product_id": "b", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decode[orderResp](t, rec)
	assert.Equal(t, "100.00", o.OverallPrice.String())

	path := "/api/orders/" + o.ID + "/status"
	rec = s.do(http.MethodPatch, path, customerKey, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPatch, path, adminKey, map[string]string{"status": "delivering"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "delivering", decode[orderResp](t, rec).Status)

	// Admins are not held to a forward-only lifecycle.
	for _, st := range []string{"completed", "pending", "cancelled", "delivering"} {
		rec = s.do(http.MethodPatch, path, adminKey, map[string]string{"status": st})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, st, decode[orderResp](t, rec).Status)
	}

	rec = s.do(http.MethodPatch, path, adminKey, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/orders/missing", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/orders/missing", customerKey, nil).Code)

	rec = s.do(http.MethodGet, "/api/orders?status=delivering", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderResp](t, rec), 1)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/orders/"+o.ID, customerKey, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/orders/"+o.ID, adminKey, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/orders/"+o.ID, adminKey, nil).Code)
}

func TestDiscounts_AdminOnly(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/discounts", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/discounts", customerKey, nil).Code)

	start := time.Now().UTC()
	rec := s.do(http.MethodPost, "/api/discounts", adminKey, map[string]any{
		"title": "overlap", "product_id": "a", "percentage": "10", "active": true,
		"start_date": start, "end_date": start.Add(time.Hour),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/discounts", adminKey, map[string]any{
		"title": "b sale", "product_id": "b", "percentage": "10", "active": true,
		"start_date": start.Add(-time.Minute), "end_date": start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Omitted active means inactive; omitted percentage is rejected.
	rec = s.do(http.MethodPost, "/api/discounts", adminKey, map[string]any{
		"title": "draft", "product_id": "a", "percentage": "5",
		"start_date": start, "end_date": start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, false, decode[map[string]any](t, rec)["active"])

	rec = s.do(http.MethodPost, "/api/discounts", adminKey, map[string]any{
		"title": "no pct", "product_id": "a", "active": true,
		"start_date": start.Add(2 * time.Hour), "end_date": start.Add(3 * time.Hour),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/discounts", adminKey, map[string]any{
		"title": "fine", "product_id": "a", "percentage": "33.335", "active": true,
		"start_date": start.Add(2 * time.Hour), "end_date": start.Add(3 * time.Hour),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/api/products/b", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "45.00", decode[productResp](t, rec).DiscountedPrice.String())
}

func TestReviews_UpdateRating(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/reviews", customerKey, map[string]any{"product_id": "b", "rating": 4, "comment": "solid"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/api/reviews", adminKey, map[string]any{"product_id": "b", "rating": 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/products/b", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, json.Number("4.5"), got["rating"])

	rec = s.do(http.MethodPost, "/api/reviews", customerKey, map[string]any{"product_id": "b", "rating": 6})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/api/reviews?product=b", customerKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestWishlist(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/api/wishlists", customerKey, map[string]string{"product_id": "a"})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[map[string]any](t, rec)

	rec = s.do(http.MethodPost, "/api/wishlists", customerKey, map[string]string{"product_id": "a"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/api/wishlists", customerKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		Product productResp `json:"product"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Product.ID)
	assert.Equal(t, "80.00", list[0].Product.DiscountedPrice.String())

	id, _ := entry["id"].(string)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/wishlists/"+id, "", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/wishlists/"+id, customerKey, nil).Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"code":404`))
}
