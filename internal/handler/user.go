package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/local-market/internal/domain/user"
)

type profileRequest struct {
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	FirstName *string `json:"first_name" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50"`
	City      *string `json:"city" binding:"omitempty,max=100"`
	Country   *string `json:"country" binding:"omitempty,max=100"`
}

func (r profileRequest) profile() user.Profile {
	return user.Profile{
		Phone:     r.Phone,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		City:      r.City,
		Country:   r.Country,
	}
}

func (h *Handler) me(c *gin.Context) {
	actor := actorFrom(c)
	if !actor.IsAuthenticated() {
		h.fail(c, errUnauthorized)
		return
	}
	u, err := h.svc.Users.Me(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(*u))
}

func (h *Handler) updateMe(c *gin.Context) {
	actor := actorFrom(c)
	if !actor.IsAuthenticated() {
		h.fail(c, errUnauthorized)
		return
	}
	var req profileRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.svc.Users.UpdateProfile(c.Request.Context(), actor, req.profile())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(*u))
}

func (h *Handler) deleteMe(c *gin.Context) {
	actor := actorFrom(c)
	if !actor.IsAuthenticated() {
		h.fail(c, errUnauthorized)
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), actor); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUser(u))
	}
	c.JSON(http.StatusOK, resp)
}
