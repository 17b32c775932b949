package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getCart(c *gin.Context) {
	crt, err := h.carts.Get(c.Request.Context(), c.Query("cart_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toCart(crt))
}

func (h *Handler) addCartItem(c *gin.Context) {
	cartID, _ := value(c, "cart_id")
	productID, err := intValue(c, "product_id", 0)
	if err != nil {
		fail(c, err)
		return
	}
	if productID <= 0 {
		fail(c, badRequest("product_id required"))
		return
	}
	qty, err := intValue(c, "qty", 1)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.carts.Add(c.Request.Context(), cartID, int64(productID), qty); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, err := pathID(c, "product_id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.carts.Remove(c.Request.Context(), c.Query("cart_id"), productID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}

func (h *Handler) applyCoupon(c *gin.Context) {
	cartID, _ := value(c, "cart_id")
	code, _ := value(c, "code")
	discount, err := h.carts.ApplyCoupon(c.Request.Context(), cartID, code)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "discount": money(discount)})
}
