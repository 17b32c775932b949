package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sgjo/shop-api/internal/domain/coupon"
)

// Accepted layouts for coupon validity bounds. Dates without a time are
// taken as midnight UTC.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func optTime(c *gin.Context, key string) (*time.Time, error) {
	v, ok := value(c, key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, badRequest("invalid %s", key)
}

// couponForm reads a full coupon definition from the request.
func couponForm(c *gin.Context) (*coupon.Coupon, error) {
	code, _ := value(c, "code")
	typ, _ := value(c, "type")
	cp := &coupon.Coupon{
		Code:      strings.TrimSpace(code),
		Type:      coupon.Type(strings.ToLower(strings.TrimSpace(typ))),
		Active:    true,
		Value:     decimal.Zero,
		MinAmount: decimal.Zero,
	}

	v, err := optDecimal(c, "value")
	if err != nil {
		return nil, err
	}
	if v != nil {
		cp.Value = *v
	}
	minAmount, err := optDecimal(c, "min_amount")
	if err != nil {
		return nil, err
	}
	if minAmount != nil {
		cp.MinAmount = *minAmount
	}
	active, err := optBool(c, "active")
	if err != nil {
		return nil, err
	}
	if active != nil {
		cp.Active = *active
	}
	if cp.ValidFrom, err = optTime(c, "valid_from"); err != nil {
		return nil, err
	}
	if cp.ValidTo, err = optTime(c, "valid_to"); err != nil {
		return nil, err
	}
	return cp, nil
}

func (h *Handler) listCoupons(c *gin.Context) {
	coupons, err := h.coupons.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]couponJSON, len(coupons))
	for i, cp := range coupons {
		out[i] = toCoupon(cp)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) createCoupon(c *gin.Context) {
	cp, err := couponForm(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.coupons.Create(c.Request.Context(), cp); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCoupon(*cp))
}

func (h *Handler) updateCoupon(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	cp, err := couponForm(c)
	if err != nil {
		fail(c, err)
		return
	}
	cp.ID = id
	if err := h.coupons.Update(c.Request.Context(), cp); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCoupon(*cp))
}

func (h *Handler) deleteCoupon(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.coupons.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}
