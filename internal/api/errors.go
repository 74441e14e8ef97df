package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Srinuas/Foodapp/internal/cart"
	"github.com/Srinuas/Foodapp/internal/checkout"
	"github.com/Srinuas/Foodapp/internal/pricing"
	"github.com/Srinuas/Foodapp/internal/profile"
	"github.com/Srinuas/Foodapp/internal/session"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

var errBadRequest = errors.New("malformed request")

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var pe *checkout.PreconditionError
	switch {
	case errors.As(err, &pe):
		if pe.Reason == checkout.ReasonLoginRequired {
			return http.StatusUnauthorized
		}
		return http.StatusConflict
	case errors.Is(err, pricing.ErrUnknownCoupon):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrUnknownItem),
		errors.Is(err, profile.ErrAddressNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, profile.ErrValidation),
		errors.Is(err, session.ErrUnsupportedCurrency),
		errors.Is(err, session.ErrInvalidProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as JSON and aborts the chain.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var pe *checkout.PreconditionError
	if errors.As(err, &pe) {
		resp.Reason = pe.Reason.String()
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err))
		resp.Error = "internal error"
	}
	c.AbortWithStatusJSON(status, resp)
}
