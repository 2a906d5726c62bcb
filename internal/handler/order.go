package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/local-market/internal/domain/order"
)

type createOrderRequest struct {
	contactRequest
	Items []order.LineRequest `json:"items" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) listOrders(c *gin.Context) {
	var status order.Status
	if v := c.Query("status"); v != "" {
		st, err := order.ParseStatus(v)
		if err != nil {
			badQuery(c, "status")
			return
		}
		status = st
	}
	orders, err := h.svc.Orders.List(c.Request.Context(), actorFrom(c), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrder(&orders[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getOrder(c *gin.Context) {
	o, err := h.svc.Orders.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(o))
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if !h.bind(c, &req) {
		return
	}
	o, err := h.svc.Orders.Create(c.Request.Context(), actorFrom(c), req.contact(), req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrder(o))
}

func (h *Handler) setOrderStatus(c *gin.Context) {
	var req statusRequest
	if !h.bind(c, &req) {
		return
	}
	next, err := order.ParseStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	o, err := h.svc.Orders.SetStatus(c.Request.Context(), actorFrom(c), c.Param("id"), next)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(o))
}

func (h *Handler) deleteOrder(c *gin.Context) {
	if err := h.svc.Orders.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
