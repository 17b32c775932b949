package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sgjo/shop-api/internal/domain/cart"
	"github.com/sgjo/shop-api/internal/domain/order"
)

func (h *Handler) placeOrder(c *gin.Context) {
	cartID, _ := value(c, "cart_id")
	if strings.TrimSpace(cartID) == "" {
		fail(c, cart.ErrMissingCartID)
		return
	}
	o, err := h.orders.PlaceOrder(c.Request.Context(), cartID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "order_id": o.ID, "total": money(o.Total)})
}

func (h *Handler) listOrders(c *gin.Context) {
	var f order.Filter
	if s := c.Query("status"); s != "" {
		st := order.Status(s)
		f.Status = &st
	}
	var err error
	if f.MinTotal, err = optDecimal(c, "min_total"); err != nil {
		fail(c, err)
		return
	}
	if f.MaxTotal, err = optDecimal(c, "max_total"); err != nil {
		fail(c, err)
		return
	}
	orders, err := h.orders.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrders(orders))
}

func (h *Handler) getOrder(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(*o))
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	status, _ := value(c, "status")
	if err := h.orders.UpdateStatus(c.Request.Context(), id, order.Status(status)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}
