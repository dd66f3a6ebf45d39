package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/model"
)

// LayoutHandler serves the landing page blocks.
type LayoutHandler struct {
	Layouts Layouts
}

func NewLayoutHandler(l Layouts) *LayoutHandler { return &LayoutHandler{Layouts: l} }

func (h *LayoutHandler) Create(c echo.Context) error {
	var req model.Layout
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Layouts.Create(ctx, req); err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"message": "Layout created successfully"})
}

func (h *LayoutHandler) Edit(c echo.Context) error {
	var req model.Layout
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Layouts.Edit(ctx, req); err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Layout updated successfully"})
}

func (h *LayoutHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Layouts.Get(ctx, c.Param("type"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"layout": l})
}
