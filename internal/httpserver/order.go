package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pedidosapp/pedidos/internal/logging"
	"github.com/pedidosapp/pedidos/internal/order"
)

type OrderHTTP struct {
	Svc *order.Service
}

// History is the customer's own orders, newest first.
func (h *OrderHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.history")

	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Svc.ListByUser(ctx, uid)
	if err != nil {
		l.Error("history_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orders)
}

// ListAll serves the staff console.
func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	orders, err := h.Svc.ListAll(ctx)
	if err != nil {
		l.Error("list_all_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orders)
}

// Cancel is the customer self-cancel path, only legal while Pendente.
func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Svc.UpdateStatus(ctx, orderID, order.StatusCancelado, uid, false); err != nil {
		return h.statusError(c, l, err)
	}

	l.Info("order cancelled", "order_id", orderID)
	return c.JSON(http.StatusOK, map[string]string{"status": order.StatusCancelado})
}

// SetStatus lets staff set any status at any time; the confirmation dialog
// in the console is the only guard, matching the intended workflow.
func (h *OrderHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.set_status")

	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("set_status_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.UpdateStatus(ctx, orderID, req.Status, uid, isEmployee(c)); err != nil {
		return h.statusError(c, l, err)
	}

	l.Info("order status updated", "order_id", orderID, "new_status", req.Status)
	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

// Feed streams the caller's order history as server-sent events.
func (h *OrderHTTP) Feed(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return h.stream(c, order.Filter{UserID: &uid})
}

// StaffFeed streams every order for the staff console.
func (h *OrderHTTP) StaffFeed(c echo.Context) error {
	return h.stream(c, order.Filter{})
}

func (h *OrderHTTP) stream(c echo.Context, filter order.Filter) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.feed")

	sub, err := h.Svc.Subscribe(ctx, filter)
	if err != nil {
		l.Error("feed_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	defer sub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return nil
		case orders, ok := <-sub.Orders():
			if !ok {
				return nil
			}
			data, err := json.Marshal(orders)
			if err != nil {
				l.Error("feed_marshal_error", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func (h *OrderHTTP) statusError(c echo.Context, l *slog.Logger, err error) error {
	switch {
	case errors.Is(err, order.ErrValidation):
		l.Warn("order_status_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrForbidden):
		l.Warn("order_status_error", "status", 403, "error", err)
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrConflict):
		l.Warn("order_status_error", "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		l.Warn("order_status_error", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	default:
		l.Error("order_status_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
