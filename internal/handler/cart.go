package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/local-market/internal/domain/order"
)

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type contactRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Address   string `json:"address" binding:"required"`
}

func (r contactRequest) contact() order.Contact {
	return order.Contact{FirstName: r.FirstName, LastName: r.LastName, Phone: r.Phone, Address: r.Address}
}

func (h *Handler) getCart(c *gin.Context) {
	v, err := h.svc.Carts.Get(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCart(v))
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if !h.bind(c, &req) {
		return
	}
	it, err := h.svc.Carts.Add(c.Request.Context(), actorFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCartItem(it))
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if !h.bind(c, &req) {
		return
	}
	it, err := h.svc.Carts.UpdateQuantity(c.Request.Context(), actorFrom(c), c.Param("id"), req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartItem(it))
}

func (h *Handler) removeCartItem(c *gin.Context) {
	if err := h.svc.Carts.Remove(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) checkout(c *gin.Context) {
	var req contactRequest
	if !h.bind(c, &req) {
		return
	}
	o, err := h.svc.Carts.Checkout(c.Request.Context(), actorFrom(c), req.contact())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrder(o))
}
