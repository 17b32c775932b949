package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sgjo/shop-api/internal/domain/admin"
	"github.com/sgjo/shop-api/internal/domain/cart"
	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/domain/media"
	"github.com/sgjo/shop-api/internal/domain/order"
	"github.com/sgjo/shop-api/internal/domain/product"
	"github.com/sgjo/shop-api/internal/domain/user"
)

// paramError reports a malformed request parameter.
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var statusByError = []struct {
	err    error
	status int
}{
	{cart.ErrMissingCartID, http.StatusBadRequest},
	{cart.ErrInvalidQuantity, http.StatusBadRequest},

	{coupon.ErrEmptyCart, http.StatusBadRequest},
	{coupon.ErrInvalidCoupon, http.StatusBadRequest},
	{coupon.ErrInactive, http.StatusBadRequest},
	{coupon.ErrBelowMinimum, http.StatusBadRequest},
	{coupon.ErrNotYetValid, http.StatusBadRequest},
	{coupon.ErrExpired, http.StatusBadRequest},
	{coupon.ErrCodeTaken, http.StatusBadRequest},
	{coupon.ErrInvalidRule, http.StatusBadRequest},
	{coupon.ErrNotFound, http.StatusNotFound},

	{order.ErrEmptyCart, http.StatusBadRequest},
	{order.ErrInvalidProduct, http.StatusBadRequest},
	{order.ErrInsufficientStock, http.StatusBadRequest},
	{order.ErrInvalidStatus, http.StatusBadRequest},
	{order.ErrNotFound, http.StatusNotFound},

	{product.ErrInvalid, http.StatusBadRequest},
	{product.ErrSlugTaken, http.StatusBadRequest},
	{product.ErrNotFound, http.StatusNotFound},
	{product.ErrCategoryNotFound, http.StatusNotFound},

	{user.ErrTooShort, http.StatusBadRequest},
	{user.ErrPasswordTooLong, http.StatusBadRequest},
	{user.ErrAlreadyExists, http.StatusBadRequest},
	{user.ErrReservedAdmin, http.StatusBadRequest},
	{user.ErrInvalidCredentials, http.StatusUnauthorized},
	{user.ErrInvalidToken, http.StatusUnauthorized},
	{user.ErrForbidden, http.StatusForbidden},
	{user.ErrInactive, http.StatusForbidden},
	{user.ErrTooManyAttempts, http.StatusTooManyRequests},
	{user.ErrNotFound, http.StatusNotFound},

	{media.ErrUnsupportedFileType, http.StatusBadRequest},
	{media.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{media.ErrNotFound, http.StatusNotFound},

	{admin.ErrInvalidSetting, http.StatusBadRequest},
}

// statusFor maps a domain error to an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	var pe *paramError
	if errors.As(err, &pe) {
		return http.StatusBadRequest
	}
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// fail aborts the request with the status mapped from err. Internal errors
// are logged and answered with a generic message.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(c.Request.Context()).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	abort(c, status, msg)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Code: status, Message: msg})
}

// badRequest reports a parameter problem that maps to 400.
func badRequest(format string, args ...any) error {
	return &paramError{msg: fmt.Sprintf(format, args...)}
}
