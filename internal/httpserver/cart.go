package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pedidosapp/pedidos/internal/cart"
	"github.com/pedidosapp/pedidos/internal/catalog"
	"github.com/pedidosapp/pedidos/internal/logging"
)

type CartHTTP struct {
	Cart    *cart.Store
	Catalog *catalog.Service
}

func (h *CartHTTP) snapshot(uid uuid.UUID) cart.Snapshot {
	return cart.Snapshot{
		Lines: h.Cart.Lines(uid),
		Total: h.Cart.TotalString(uid),
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, h.snapshot(uid))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		DishID uuid.UUID `json:"dish_id"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.DishID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "dish_id required")
	}

	dish, err := h.Catalog.Get(ctx, req.DishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("add_item_error", "status", 404, "dish_id", req.DishID)
			return echo.NewHTTPError(http.StatusNotFound, "dish not found")
		}
		l.Error("add_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.Cart.AddItem(uid, *dish)
	l.Info("item added to cart", "dish_id", dish.ID)
	return c.JSON(http.StatusCreated, h.snapshot(uid))
}

func (h *CartHTTP) Increment(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	dishID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	h.Cart.Increment(uid, dishID)
	return c.JSON(http.StatusOK, h.snapshot(uid))
}

func (h *CartHTTP) Decrement(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	dishID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	h.Cart.Decrement(uid, dishID)
	return c.JSON(http.StatusOK, h.snapshot(uid))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	dishID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	h.Cart.Remove(uid, dishID)
	return c.JSON(http.StatusOK, h.snapshot(uid))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	h.Cart.Clear(uid)
	return c.JSON(http.StatusOK, h.snapshot(uid))
}
