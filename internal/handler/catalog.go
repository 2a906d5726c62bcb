package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/local-market/internal/domain/access"
)

type bannerRequest struct {
	Title string `json:"title" binding:"required"`
	Image string `json:"image" binding:"required"`
}

type categoryRequest struct {
	Name     string  `json:"name" binding:"required"`
	BannerID *string `json:"banner_id"`
}

type imageRequest struct {
	Path string `json:"path" binding:"required"`
}

// allow writes a 403 and returns false when the actor may not act on kind.
func (h *Handler) allow(c *gin.Context, action access.Action, kind access.Kind) bool {
	if err := access.Authorize(actorFrom(c), action, access.Of(kind)); err != nil {
		h.fail(c, err)
		return false
	}
	return true
}

func (h *Handler) listBanners(c *gin.Context) {
	if !h.allow(c, access.ActionList, access.KindBanner) {
		return
	}
	banners, err := h.svc.Catalog.Banners(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]bannerResponse, 0, len(banners))
	for _, b := range banners {
		resp = append(resp, toBanner(b))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getBanner(c *gin.Context) {
	if !h.allow(c, access.ActionRetrieve, access.KindBanner) {
		return
	}
	b, err := h.svc.Catalog.Banner(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBanner(*b))
}

func (h *Handler) createBanner(c *gin.Context) {
	if !h.allow(c, access.ActionCreate, access.KindBanner) {
		return
	}
	var req bannerRequest
	if !h.bind(c, &req) {
		return
	}
	b, err := h.svc.Catalog.CreateBanner(c.Request.Context(), req.Title, req.Image)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBanner(*b))
}

func (h *Handler) updateBanner(c *gin.Context) {
	if !h.allow(c, access.ActionUpdate, access.KindBanner) {
		return
	}
	var req bannerRequest
	if !h.bind(c, &req) {
		return
	}
	b, err := h.svc.Catalog.UpdateBanner(c.Request.Context(), c.Param("id"), req.Title, req.Image)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBanner(*b))
}

func (h *Handler) deleteBanner(c *gin.Context) {
	if !h.allow(c, access.ActionDelete, access.KindBanner) {
		return
	}
	if err := h.svc.Catalog.DeleteBanner(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCategories(c *gin.Context) {
	if !h.allow(c, access.ActionList, access.KindCategory) {
		return
	}
	categories, err := h.svc.Catalog.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, toCategory(cat))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getCategory(c *gin.Context) {
	if !h.allow(c, access.ActionRetrieve, access.KindCategory) {
		return
	}
	cat, err := h.svc.Catalog.Category(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategory(*cat))
}

func (h *Handler) createCategory(c *gin.Context) {
	if !h.allow(c, access.ActionCreate, access.KindCategory) {
		return
	}
	var req categoryRequest
	if !h.bind(c, &req) {
		return
	}
	cat, err := h.svc.Catalog.CreateCategory(c.Request.Context(), req.Name, req.BannerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategory(*cat))
}

func (h *Handler) updateCategory(c *gin.Context) {
	if !h.allow(c, access.ActionUpdate, access.KindCategory) {
		return
	}
	var req categoryRequest
	if !h.bind(c, &req) {
		return
	}
	cat, err := h.svc.Catalog.UpdateCategory(c.Request.Context(), c.Param("id"), req.Name, req.BannerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategory(*cat))
}

func (h *Handler) deleteCategory(c *gin.Context) {
	if !h.allow(c, access.ActionDelete, access.KindCategory) {
		return
	}
	if err := h.svc.Catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addImage(c *gin.Context) {
	if !h.allow(c, access.ActionCreate, access.KindImage) {
		return
	}
	var req imageRequest
	if !h.bind(c, &req) {
		return
	}
	img, err := h.svc.Catalog.AddImage(c.Request.Context(), c.Param("id"), req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toImage(*img))
}

func (h *Handler) deleteImage(c *gin.Context) {
	if !h.allow(c, access.ActionDelete, access.KindImage) {
		return
	}
	if err := h.svc.Catalog.DeleteImage(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
