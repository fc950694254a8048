package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pedidosapp/pedidos/internal/catalog"
	"github.com/pedidosapp/pedidos/internal/logging"
	"github.com/pedidosapp/pedidos/internal/util"
)

type DishHTTP struct {
	Svc       *catalog.Service
	UploadDir string
}

// Menu serves the customer-facing dish list. With q set the request goes
// through search, otherwise it is a category-filtered snapshot.
func (h *DishHTTP) Menu(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.menu")

	if q := c.QueryParam("q"); q != "" {
		page := util.ParseIntDefault(c.QueryParam("page"), 1)
		size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
		from, limit := util.Calculate(page, size)

		dishes, err := h.Svc.SearchDishes(ctx, q, from, limit)
		if err != nil {
			if errors.Is(err, catalog.ErrValidation) {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			l.Error("menu_search_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "search unavailable")
		}
		return c.JSON(http.StatusOK, dishes)
	}

	dishes, err := h.Svc.List(ctx, c.QueryParam("category"))
	if err != nil {
		if errors.Is(err, catalog.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("menu_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, dishes)
}

func (h *DishHTTP) GetDish(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.get")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	dish, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dish not found")
		}
		l.Error("get_dish_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, dish)
}

func (h *DishHTTP) CreateDish(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.create")

	var req catalog.CreateDishRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_dish_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	dish, err := h.Svc.CreateDish(ctx, req)
	if err != nil {
		if errors.Is(err, catalog.ErrValidation) {
			l.Warn("create_dish_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("create_dish_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("dish created", "dish_id", dish.ID)
	return c.JSON(http.StatusCreated, dish)
}

func (h *DishHTTP) PatchDish(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.patch")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req catalog.PatchDishRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_dish_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	dish, err := h.Svc.PatchDish(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "dish not found")
		case errors.Is(err, catalog.ErrValidation):
			l.Warn("patch_dish_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("patch_dish_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("dish updated", "dish_id", dish.ID)
	return c.JSON(http.StatusOK, dish)
}

func (h *DishHTTP) DeleteDish(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.delete")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteDish(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dish not found")
		}
		l.Error("delete_dish_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("dish deleted", "dish_id", id)
	return c.NoContent(http.StatusNoContent)
}

// UploadImage stores a dish photo and returns the URL the dish record must
// reference. A dish is not complete without one.
func (h *DishHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dish.upload_image")

	file, err := c.FormFile("image")
	if err != nil {
		l.Warn("upload_image_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "image file required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported image type")
	}

	src, err := file.Open()
	if err != nil {
		l.Error("upload_image_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		l.Error("upload_image_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store upload")
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		l.Error("upload_image_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store upload")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		l.Error("upload_image_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store upload")
	}

	url := fmt.Sprintf("/static/uploads/%s", name)
	l.Info("image uploaded", "url", url)
	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}
