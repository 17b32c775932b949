package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sgjo/shop-api/internal/domain/product"
)

// productPatch collects the submitted product fields. An uploaded image
// file is stored as media and replaces image_url.
func (h *Handler) productPatch(c *gin.Context) (product.Patch, error) {
	var p product.Patch
	limitUpload(c)
	fh, err := formFile(c, "image")
	if err != nil {
		return p, err
	}

	p.SKU = optString(c, "sku")
	p.Name = optString(c, "name")
	p.Description = optString(c, "description")
	p.ImageURL = optString(c, "image_url")
	if p.Price, err = optDecimal(c, "price"); err != nil {
		return p, err
	}
	if p.Stock, err = optInt(c, "stock"); err != nil {
		return p, err
	}
	if p.CategoryIDs, err = idList(c, "category_ids"); err != nil {
		return p, err
	}
	if p.CategoryIDs == nil {
		// The storefront form always posts "categories"; blank keeps the links.
		ids, err := idList(c, "categories")
		if err != nil {
			return p, err
		}
		if len(ids) > 0 {
			p.CategoryIDs = ids
		}
	}

	if fh != nil {
		m, err := h.storeUpload(c, fh)
		if err != nil {
			return p, err
		}
		p.ImageURL = &m.URL
	}
	return p, nil
}

func (h *Handler) createProduct(c *gin.Context) {
	patch, err := h.productPatch(c)
	if err != nil {
		fail(c, err)
		return
	}
	p := &product.Product{Price: decimal.Zero}
	if patch.SKU != nil {
		p.SKU = strings.TrimSpace(*patch.SKU)
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if err := h.catalog.CreateProduct(c.Request.Context(), p, patch.CategoryIDs); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": p.ID})
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	patch, err := h.productPatch(c)
	if err != nil {
		fail(c, err)
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toProduct(*p))
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}

func (h *Handler) createCategory(c *gin.Context) {
	sort, err := intValue(c, "sort", 0)
	if err != nil {
		fail(c, err)
		return
	}
	name, _ := value(c, "name")
	cat, err := h.catalog.CreateCategory(c.Request.Context(), name, sort)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategory(*cat))
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	patch := product.CategoryPatch{Name: optString(c, "name")}
	if patch.Sort, err = optInt(c, "sort"); err != nil {
		fail(c, err)
		return
	}
	cat, err := h.catalog.UpdateCategory(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategory(*cat))
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}
