package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/payment"
	"github.com/iliyamo/lms-backend/internal/service"
)

type stubCheckout struct {
	gotUser  string
	gotInput service.CreateOrderInput
	err      error
}

func (s *stubCheckout) CreateOrder(_ context.Context, userID string, in service.CreateOrderInput) (model.Order, error) {
	s.gotUser, s.gotInput = userID, in
	return model.Order{ID: "o-1", CourseID: in.CourseID, UserID: userID}, s.err
}

func (s *stubCheckout) ListOrders(context.Context) ([]model.Order, error) {
	return []model.Order{{ID: "o-1"}}, nil
}

func (s *stubCheckout) PublishableKey() (string, error) { return "", service.ErrPaymentsDisabled }

func (s *stubCheckout) NewPayment(_ context.Context, amount int64) (payment.Intent, error) {
	return payment.Intent{ClientSecret: "secret"}, nil
}

func TestOrderHandler(t *testing.T) {
	co := &stubCheckout{}
	h := NewOrderHandler(co)
	e := newEcho()
	e.POST("/create-order", h.Create, asUser(model.User{ID: "u-1"}))
	e.POST("/payment", h.NewPayment)
	e.GET("/payment/stripepublishablekey", h.PublishableKey)

	rec := do(e, http.MethodPost, "/create-order", `{"courseId":"c-1","paymentInfo":{"id":"pi_1"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u-1", co.gotUser)
	assert.Equal(t, "c-1", co.gotInput.CourseID)
	assert.JSONEq(t, `{"id":"pi_1"}`, string(co.gotInput.PaymentInfo))

	co.err = apperr.ErrDeliveryFailed
	rec = do(e, http.MethodPost, "/create-order", `{"courseId":"c-1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(e, http.MethodPost, "/payment", `{"amount":2900}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "secret", decode(t, rec)["client_secret"])

	rec = do(e, http.MethodGet, "/payment/stripepublishablekey", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubProfiles struct {
	Profiles
	renamed string
	deleted string
}

func (s *stubProfiles) UpdateInfo(_ context.Context, id, name string) (model.User, error) {
	s.renamed = name
	return model.User{ID: id, Name: name}, nil
}

func (s *stubProfiles) DeleteUser(_ context.Context, id string) error {
	if id != "u-2" {
		return apperr.ErrNotFound
	}
	s.deleted = id
	return nil
}

func TestUserHandler(t *testing.T) {
	p := &stubProfiles{}
	h := NewUserHandler(p)
	e := newEcho()
	e.PUT("/update-user-info", h.UpdateInfo, asUser(model.User{ID: "u-1"}))
	e.PUT("/update-user-info-anon", h.UpdateInfo)
	e.DELETE("/delete-user/:id", h.DeleteUser)

	rec := do(e, http.MethodPut, "/update-user-info", `{"name":"Annie"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Annie", p.renamed)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPut, "/update-user-info-anon", `{"name":"x"}`).Code)

	assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/delete-user/u-2", "").Code)
	assert.Equal(t, "u-2", p.deleted)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/delete-user/u-9", "").Code)
}

type stubLayouts struct {
	created model.Layout
}

func (s *stubLayouts) Create(_ context.Context, in model.Layout) (model.Layout, error) {
	if s.created.Type == in.Type {
		return model.Layout{}, apperr.ErrAlreadyExists
	}
	s.created = in
	return in, nil
}

func (s *stubLayouts) Edit(_ context.Context, in model.Layout) (model.Layout, error) {
	return in, nil
}

func (s *stubLayouts) Get(_ context.Context, typ string) (model.Layout, error) {
	if typ != s.created.Type {
		return model.Layout{}, apperr.ErrNotFound
	}
	return s.created, nil
}

func TestLayoutHandler(t *testing.T) {
	h := NewLayoutHandler(&stubLayouts{})
	e := newEcho()
	e.POST("/create-layout", h.Create)
	e.GET("/get-layout/:type", h.Get)

	body := `{"type":"FAQ","faq":[{"question":"Q","answer":"A"}]}`
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/create-layout", body).Code)
	assert.Equal(t, http.StatusConflict, do(e, http.MethodPost, "/create-layout", body).Code)

	rec := do(e, http.MethodGet, "/get-layout/FAQ", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"question":"Q"`)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/get-layout/Banner", "").Code)
}

type stubFeed struct{ items []model.Notification }

func (s *stubFeed) List(context.Context) ([]model.Notification, error) { return s.items, nil }

func (s *stubFeed) MarkRead(_ context.Context, id string) ([]model.Notification, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Status = model.NotificationRead
			return s.items, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func TestNotificationHandler(t *testing.T) {
	feed := &stubFeed{items: []model.Notification{{ID: "n-1", Status: model.NotificationUnread}}}
	h := NewNotificationHandler(feed)
	e := newEcho()
	e.GET("/get-all-notifications", h.List)
	e.PUT("/update-notification/:id", h.MarkRead)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/get-all-notifications", "").Code)
	rec := do(e, http.MethodPut, "/update-notification/n-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"read"`)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/update-notification/n-9", "").Code)
}
