package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the admin notification feed.
type NotificationHandler struct {
	Feed Feed
}

func NewNotificationHandler(f Feed) *NotificationHandler { return &NotificationHandler{Feed: f} }

func (h *NotificationHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Feed.List(ctx)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"notifications": items})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Feed.MarkRead(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"notifications": items})
}
