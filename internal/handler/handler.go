// Package handler exposes the market over a JSON REST API built on gin.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/local-market/internal/domain/cart"
	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/order"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/review"
	"github.com/xenking/local-market/internal/domain/user"
	"github.com/xenking/local-market/internal/domain/wishlist"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Services groups the domain services the API delegates to.
type Services struct {
	Catalog   *catalog.Service
	Products  *product.Service
	Prices    *pricing.Resolver
	Discounts *discount.Service
	Carts     *cart.Service
	Orders    *order.Service
	Reviews   *review.Service
	Wishlists *wishlist.Service
	Users     *user.Service
}

// Handler serves the REST API.
type Handler struct {
	cfg  Config
	svc  Services
	auth *Authenticator
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, svc Services, authn *Authenticator) *Handler {
	return &Handler{cfg: cfg, svc: svc, auth: authn}
}

// Router builds the gin engine. Every route lives under /api.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Code: http.StatusNotFound, Message: "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody{Code: http.StatusMethodNotAllowed, Message: "method not allowed"})
	})

	api := r.Group("/api", h.authenticate)

	api.GET("/banners", h.listBanners)
	api.POST("/banners", h.createBanner)
	api.GET("/banners/:id", h.getBanner)
	api.PUT("/banners/:id", h.updateBanner)
	api.DELETE("/banners/:id", h.deleteBanner)

	api.GET("/categories", h.listCategories)
	api.POST("/categories", h.createCategory)
	api.GET("/categories/:id", h.getCategory)
	api.PUT("/categories/:id", h.updateCategory)
	api.DELETE("/categories/:id", h.deleteCategory)

	api.GET("/products", h.listProducts)
	api.POST("/products", h.createProduct)
	api.GET("/products/:id", h.getProduct)
	api.PUT("/products/:id", h.updateProduct)
	api.DELETE("/products/:id", h.deleteProduct)
	api.POST("/products/:id/images", h.addImage)
	api.DELETE("/images/:id", h.deleteImage)

	api.GET("/discounts", h.listDiscounts)
	api.POST("/discounts", h.createDiscount)
	api.GET("/discounts/:id", h.getDiscount)
	api.PUT("/discounts/:id", h.updateDiscount)
	api.DELETE("/discounts/:id", h.deleteDiscount)

	api.GET("/cart", h.getCart)
	api.POST("/cart/items", h.addCartItem)
	api.PUT("/cart/items/:id", h.updateCartItem)
	api.DELETE("/cart/items/:id", h.removeCartItem)
	api.POST("/cart/checkout", h.checkout)

	api.GET("/orders", h.listOrders)
	api.POST("/orders", h.createOrder)
	api.GET("/orders/:id", h.getOrder)
	api.PATCH("/orders/:id/status", h.setOrderStatus)
	api.DELETE("/orders/:id", h.deleteOrder)

	api.GET("/reviews", h.listReviews)
	api.POST("/reviews", h.createReview)
	api.GET("/reviews/:id", h.getReview)
	api.DELETE("/reviews/:id", h.deleteReview)

	api.GET("/wishlists", h.listWishlist)
	api.POST("/wishlists", h.addWishlist)
	api.DELETE("/wishlists/:id", h.removeWishlist)

	api.GET("/users/me", h.me)
	api.PATCH("/users/me", h.updateMe)
	api.DELETE("/users/me", h.deleteMe)
	api.GET("/users", h.listUsers)

	return r
}
