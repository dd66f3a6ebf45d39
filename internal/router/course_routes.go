package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/handler"
)

// registerCourses mounts the catalog. Public reads go through the response
// cache; writes purge it from the service layer.
func registerCourses(g *echo.Group, h *handler.CourseHandler, auth echo.MiddlewareFunc, admin, cached []echo.MiddlewareFunc) {
	g.GET("/get-courses", h.List, cached...)
	g.GET("/get-course/:id", h.Get, cached...)
	g.GET("/search-courses", h.Search, cached...)

	g.GET("/get-course-content/:id", h.Content, auth)
	g.PUT("/add-question", h.AddQuestion, auth)
	g.PUT("/add-answer", h.AddAnswer, auth)
	g.PUT("/add-review/:id", h.AddReview, auth)

	g.POST("/create-course", h.Create, admin...)
	g.PUT("/edit-course/:id", h.Edit, admin...)
	g.PUT("/add-reply", h.AddReply, admin...)
	g.GET("/get-full-courses", h.ListFull, admin...)
	g.DELETE("/delete-course/:id", h.Delete, admin...)
}

func registerOrders(g *echo.Group, h *handler.OrderHandler, auth echo.MiddlewareFunc, admin []echo.MiddlewareFunc) {
	g.POST("/create-order", h.Create, auth)
	g.GET("/payment/stripepublishablekey", h.PublishableKey)
	g.POST("/payment", h.NewPayment, auth)
	g.GET("/get-orders", h.List, admin...)
}

func registerNotifications(g *echo.Group, h *handler.NotificationHandler, admin []echo.MiddlewareFunc) {
	g.GET("/get-all-notifications", h.List, admin...)
	g.PUT("/update-notification/:id", h.MarkRead, admin...)
}

func registerLayouts(g *echo.Group, h *handler.LayoutHandler, admin, cached []echo.MiddlewareFunc) {
	g.GET("/get-layout/:type", h.Get, cached...)
	g.POST("/create-layout", h.Create, admin...)
	g.PUT("/edit-layout", h.Edit, admin...)
}
