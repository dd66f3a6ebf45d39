package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/service"
)

// OrderHandler serves checkout and the payment bootstrap endpoints.
type OrderHandler struct {
	Checkout Checkout
}

func NewOrderHandler(co Checkout) *OrderHandler { return &OrderHandler{Checkout: co} }

type paymentReq struct {
	Amount int64 `json:"amount"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req service.CreateOrderInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	order, err := h.Checkout.CreateOrder(ctx, u.ID, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"order": order})
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	orders, err := h.Checkout.ListOrders(ctx)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"orders": orders})
}

func (h *OrderHandler) PublishableKey(c echo.Context) error {
	key, err := h.Checkout.PublishableKey()
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"publishablekey": key})
}

// NewPayment opens a payment intent and hands its client secret to the
// browser.
func (h *OrderHandler) NewPayment(c echo.Context) error {
	var req paymentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	intent, err := h.Checkout.NewPayment(ctx, req.Amount)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"client_secret": intent.ClientSecret})
}
