package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pedidosapp/pedidos/internal/auth"
	"github.com/pedidosapp/pedidos/internal/cep"
	"github.com/pedidosapp/pedidos/internal/checkout"
	"github.com/pedidosapp/pedidos/internal/logging"
)

type CheckoutHTTP struct {
	Svc  *checkout.Service
	Auth *auth.Service
	CEP  *cep.Client
}

// Validate is the first gate of the two-step confirmation: field checks
// only, nothing is created.
func (h *CheckoutHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.validate")

	if _, err := userID(c); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req checkout.Request
	if err := c.Bind(&req); err != nil {
		l.Warn("validate_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Validate(req); err != nil {
		l.Warn("validate_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":        true,
		"confirmation": "Deseja finalizar o pedido?",
	})
}

// Confirm is the second gate: the cart snapshot becomes an order and the
// cart is cleared.
func (h *CheckoutHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.confirm")

	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req checkout.Request
	if err := c.Bind(&req); err != nil {
		l.Warn("confirm_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Auth.Profile(ctx, uid)
	if err != nil {
		l.Error("confirm_error", "status", 500, "reason", "cannot load profile", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	customer := checkout.Customer{
		ID:    user.ID,
		Name:  user.FullName,
		Photo: user.ProfilePicture,
	}

	order, err := h.Svc.Confirm(ctx, customer, req)
	if err != nil {
		if errors.Is(err, checkout.ErrValidation) {
			l.Warn("confirm_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("confirm_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not place order")
	}

	l.Info("order placed", "order_id", order.ID, "total", order.Total)
	return c.JSON(http.StatusCreated, order)
}

// LookupCEP backs the address autofill. Failures come back as errors for
// the form to report, manual street entry stays possible either way.
func (h *CheckoutHTTP) LookupCEP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.lookup_cep")

	addr, err := h.CEP.Lookup(ctx, c.Param("cep"))
	if err != nil {
		switch {
		case errors.Is(err, cep.ErrInvalid):
			return echo.NewHTTPError(http.StatusBadRequest, "cep must have 8 digits")
		case errors.Is(err, cep.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "cep not found")
		default:
			l.Warn("lookup_cep_error", "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "cep lookup unavailable")
		}
	}
	return c.JSON(http.StatusOK, addr)
}
