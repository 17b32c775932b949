package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.Products(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toProducts(products))
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	p, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toProduct(*p))
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]categoryJSON, len(categories))
	for i, cat := range categories {
		out[i] = toCategory(cat)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) categoryProducts(c *gin.Context) {
	_, products, err := h.catalog.CategoryProducts(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toProducts(products))
}
