package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/discount"
)

type discountRequest struct {
	Title      string           `json:"title" binding:"required"`
	ProductID  string           `json:"product_id" binding:"required"`
	Percentage *decimal.Decimal `json:"percentage" binding:"required"`
	StartDate  time.Time        `json:"start_date" binding:"required"`
	EndDate    time.Time        `json:"end_date" binding:"required"`
	Active     bool             `json:"active"`
}

func (r discountRequest) draft() discount.Draft {
	return discount.Draft{
		Title:      r.Title,
		ProductID:  r.ProductID,
		Percentage: *r.Percentage,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Active:     r.Active,
	}
}

func (h *Handler) listDiscounts(c *gin.Context) {
	if !h.allow(c, access.ActionList, access.KindDiscount) {
		return
	}
	discounts, err := h.svc.Discounts.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]discountResponse, 0, len(discounts))
	for _, d := range discounts {
		resp = append(resp, toDiscount(d))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getDiscount(c *gin.Context) {
	if !h.allow(c, access.ActionRetrieve, access.KindDiscount) {
		return
	}
	d, err := h.svc.Discounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toDiscount(*d))
}

func (h *Handler) createDiscount(c *gin.Context) {
	if !h.allow(c, access.ActionCreate, access.KindDiscount) {
		return
	}
	var req discountRequest
	if !h.bind(c, &req) {
		return
	}
	d, err := h.svc.Discounts.Create(c.Request.Context(), req.draft())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDiscount(*d))
}

func (h *Handler) updateDiscount(c *gin.Context) {
	if !h.allow(c, access.ActionUpdate, access.KindDiscount) {
		return
	}
	var req discountRequest
	if !h.bind(c, &req) {
		return
	}
	d, err := h.svc.Discounts.Update(c.Request.Context(), c.Param("id"), req.draft())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toDiscount(*d))
}

func (h *Handler) deleteDiscount(c *gin.Context) {
	if !h.allow(c, access.ActionDelete, access.KindDiscount) {
		return
	}
	if err := h.svc.Discounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
