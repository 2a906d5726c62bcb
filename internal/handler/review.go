package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

type wishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (h *Handler) listReviews(c *gin.Context) {
	reviews, err := h.svc.Reviews.List(c.Request.Context(), actorFrom(c), c.Query("product"))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		resp = append(resp, toReview(r))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getReview(c *gin.Context) {
	r, err := h.svc.Reviews.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toReview(*r))
}

func (h *Handler) createReview(c *gin.Context) {
	var req reviewRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.svc.Reviews.Create(c.Request.Context(), actorFrom(c), req.ProductID, req.Rating, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReview(*r))
}

func (h *Handler) deleteReview(c *gin.Context) {
	if err := h.svc.Reviews.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listWishlist(c *gin.Context) {
	entries, err := h.svc.Wishlists.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.ProductID != nil {
			ids = append(ids, *e.ProductID)
		}
	}
	products, err := h.svc.Products.GetMany(c.Request.Context(), ids)
	if err != nil {
		h.fail(c, err)
		return
	}
	presented, err := h.present(c, products)
	if err != nil {
		h.fail(c, err)
		return
	}
	byID := make(map[string]*productResponse, len(presented))
	for i := range presented {
		byID[presented[i].ID] = &presented[i]
	}

	resp := make([]wishlistResponse, 0, len(entries))
	for _, e := range entries {
		var p *productResponse
		if e.ProductID != nil {
			p = byID[*e.ProductID]
		}
		resp = append(resp, toWishlist(e, p))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addWishlist(c *gin.Context) {
	var req wishlistRequest
	if !h.bind(c, &req) {
		return
	}
	e, err := h.svc.Wishlists.Add(c.Request.Context(), actorFrom(c), req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWishlist(*e, nil))
}

func (h *Handler) removeWishlist(c *gin.Context) {
	if err := h.svc.Wishlists.Remove(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
