package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/middleware"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/service"
)

// requestTimeout bounds the store and cache calls made for one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// ok writes {"success": true, ...fields}.
func ok(c echo.Context, status int, fields echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(status, body)
}

// bind decodes the request body, reporting malformed input as a
// validation error.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", apperr.ErrValidation)
	}
	return nil
}

// caller returns the identity attached by the Auth Gate.
func caller(c echo.Context) (model.User, error) {
	u, found := middleware.Identity(c)
	if !found {
		return model.User{}, apperr.ErrNoToken
	}
	return u, nil
}

// ErrorHandler renders every error as {"success": false, "message"} with
// the status apperr.Status assigns. Internal errors are logged and their
// detail is withheld from the client.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := classify(err)
		if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
			log.Error("request failed", "path", c.Path(), "error", err)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"success": false, "message": msg})
		}
		if err != nil {
			log.Error("write error response", "error", err)
		}
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, service.ErrPaymentsDisabled), errors.Is(err, service.ErrSearchDisabled):
		return http.StatusServiceUnavailable, err.Error()
	}
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		return status, "internal server error"
	}
	return status, err.Error()
}
