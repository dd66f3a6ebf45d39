package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-backend/internal/handler"
	"github.com/iliyamo/lms-backend/internal/middleware"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/token"
)

type sessions map[string]model.User

func (s sessions) Get(_ context.Context, id string) (model.User, bool, error) {
	u, ok := s[id]
	return u, ok, nil
}

func newServer(t *testing.T) (*echo.Echo, *token.Issuer) {
	t.Helper()
	iss, err := token.NewIssuer(token.Secrets{Access: "a", Refresh: "r", Activation: "x"}, token.DefaultTTLs())
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	Register(e, Deps{
		Gate: middleware.NewGate(iss, sessions{
			"u-1": {ID: "u-1", Role: model.RoleUser},
			"a-1": {ID: "a-1", Role: model.RoleAdmin},
		}),
		Health:        handler.Health(nil),
		Auth:          &handler.AuthHandler{},
		Users:         &handler.UserHandler{},
		Courses:       &handler.CourseHandler{},
		Orders:        &handler.OrderHandler{},
		Notifications: &handler.NotificationHandler{},
		Layouts:       &handler.LayoutHandler{},
	})
	return e, iss
}

func TestRegister_MountsAPI(t *testing.T) {
	e, _ := newServer(t)
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /api/v1/registration",
		"POST /api/v1/activate-user",
		"POST /api/v1/login",
		"GET /api/v1/refresh-token",
		"GET /api/v1/me",
		"GET /api/v1/get-courses",
		"PUT /api/v1/add-question",
		"PUT /api/v1/add-reply",
		"POST /api/v1/create-order",
		"PUT /api/v1/update-notification/:id",
		"GET /api/v1/get-layout/:type",
	} {
		assert.True(t, got[want], want)
	}
}

func TestAdminRoutes_Gated(t *testing.T) {
	e, iss := newServer(t)
	get := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/get-users", nil)
		if userID != "" {
			raw, err := iss.IssueAccessToken(userID)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: raw})
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, get(""))
	assert.Equal(t, http.StatusUnauthorized, get("ghost"))
	assert.Equal(t, http.StatusForbidden, get("u-1"))
}

func TestHealthRoute(t *testing.T) {
	e, _ := newServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
