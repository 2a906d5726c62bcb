package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
)

type productRequest struct {
	Name        string          `json:"name" binding:"required"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Amount      int             `json:"amount" binding:"min=0"`
	IsAvailable *bool           `json:"is_available"`
	CategoryID  string          `json:"category_id" binding:"required"`
}

func (r productRequest) draft() product.Draft {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return product.Draft{
		Name:        r.Name,
		Brand:       r.Brand,
		Description: r.Description,
		Price:       r.Price,
		Amount:      r.Amount,
		IsAvailable: available,
		CategoryID:  r.CategoryID,
	}
}

func parseFilter(c *gin.Context) (product.Filter, string, bool) {
	f := product.Filter{
		Search:     c.Query("search"),
		CategoryID: c.Query("category"),
	}
	if v := c.Query("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, "min_price", false
		}
		f.MinPrice = &d
	}
	if v := c.Query("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, "max_price", false
		}
		f.MaxPrice = &d
	}
	if v := c.Query("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, "available", false
		}
		f.Available = &b
	}
	ordering, err := product.ParseOrdering(c.Query("ordering"))
	if err != nil {
		return f, "ordering", false
	}
	f.Ordering = ordering
	return f, "", true
}

// present prices and decorates products for output.
func (h *Handler) present(c *gin.Context, products []product.Product) ([]productResponse, error) {
	ctx := c.Request.Context()
	quotes, err := h.svc.Prices.QuoteMany(ctx, products, h.svc.Prices.Now())
	if err != nil {
		return nil, errors.Wrap(err, "quote products")
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	images, err := h.svc.Catalog.Images(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "list images")
	}
	byProduct := catalog.GroupByProduct(images)

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		q, ok := quotes[p.ID]
		if !ok {
			q = pricing.Quote{ListPrice: p.Price, UnitPrice: p.Price}
		}
		resp = append(resp, h.toProduct(p, q, byProduct[p.ID]))
	}
	return resp, nil
}

func (h *Handler) presentOne(c *gin.Context, p *product.Product) (productResponse, error) {
	resp, err := h.present(c, []product.Product{*p})
	if err != nil {
		return productResponse{}, err
	}
	return resp[0], nil
}

func (h *Handler) listProducts(c *gin.Context) {
	if !h.allow(c, access.ActionList, access.KindProduct) {
		return
	}
	f, bad, ok := parseFilter(c)
	if !ok {
		badQuery(c, bad)
		return
	}
	products, err := h.svc.Products.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp, err := h.present(c, products)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getProduct(c *gin.Context) {
	if !h.allow(c, access.ActionRetrieve, access.KindProduct) {
		return
	}
	p, err := h.svc.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp, err := h.presentOne(c, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createProduct(c *gin.Context) {
	if !h.allow(c, access.ActionCreate, access.KindProduct) {
		return
	}
	var req productRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.svc.Products.Create(c.Request.Context(), req.draft())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp, err := h.presentOne(c, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) updateProduct(c *gin.Context) {
	if !h.allow(c, access.ActionUpdate, access.KindProduct) {
		return
	}
	var req productRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.svc.Products.Update(c.Request.Context(), c.Param("id"), req.draft())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp, err := h.presentOne(c, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if !h.allow(c, access.ActionDelete, access.KindProduct) {
		return
	}
	if err := h.svc.Products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
