// Package router wires handlers and middleware onto the echo instance.
// Everything lives under /api/v1 except the health check.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/handler"
	"github.com/iliyamo/lms-backend/internal/middleware"
	"github.com/iliyamo/lms-backend/internal/model"
)

// Deps carries what the routes need. RateLimit and Cache may be nil, in
// which case the routes run without them.
type Deps struct {
	Gate          *middleware.Gate
	RateLimit     echo.MiddlewareFunc
	Cache         echo.MiddlewareFunc
	Health        echo.HandlerFunc
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Courses       *handler.CourseHandler
	Orders        *handler.OrderHandler
	Notifications *handler.NotificationHandler
	Layouts       *handler.LayoutHandler
}

// Register mounts every route.
func Register(e *echo.Echo, d Deps) {
	if d.Health != nil {
		e.GET("/healthz", d.Health)
	}

	api := e.Group("/api/v1")
	auth := d.Gate.Authenticate()
	admin := []echo.MiddlewareFunc{auth, middleware.AuthorizeRoles(model.RoleAdmin)}
	limited := optional(d.RateLimit)
	cached := optional(d.Cache)

	registerAuth(api, d.Auth, auth, limited)
	registerUsers(api, d.Users, auth, admin)
	registerCourses(api, d.Courses, auth, admin, cached)
	registerOrders(api, d.Orders, auth, admin)
	registerNotifications(api, d.Notifications, admin)
	registerLayouts(api, d.Layouts, admin, cached)
}

func registerAuth(g *echo.Group, h *handler.AuthHandler, auth echo.MiddlewareFunc, limited []echo.MiddlewareFunc) {
	g.POST("/registration", h.Register, limited...)
	g.POST("/activate-user", h.Activate, limited...)
	g.POST("/login", h.Login, limited...)
	g.POST("/social-auth", h.SocialAuth, limited...)
	g.GET("/refresh-token", h.Refresh, limited...)
	g.GET("/logout", h.Logout, auth)
	g.GET("/me", h.Me, auth)
}

func registerUsers(g *echo.Group, h *handler.UserHandler, auth echo.MiddlewareFunc, admin []echo.MiddlewareFunc) {
	g.PUT("/update-user-info", h.UpdateInfo, auth)
	g.PUT("/update-user-password", h.UpdatePassword, auth)
	g.PUT("/update-user-avatar", h.UpdateAvatar, auth)

	g.GET("/get-users", h.ListUsers, admin...)
	g.PUT("/update-user", h.UpdateRole, admin...)
	g.DELETE("/delete-user/:id", h.DeleteUser, admin...)
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}
