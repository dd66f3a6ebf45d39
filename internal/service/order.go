package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/events"
	"github.com/iliyamo/lms-backend/internal/logging"
	"github.com/iliyamo/lms-backend/internal/mail"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/payment"
)

// ErrPaymentsDisabled is returned by payment operations when no gateway
// is configured.
var ErrPaymentsDisabled = errors.New("payments are not configured")

// OrderService enrolls users in courses they bought.
type OrderService struct {
	Users         UserStore
	Courses       CourseStore
	Orders        OrderStore
	Notifications NotificationStore
	Sessions      SessionStore
	Mail          mail.Sender
	Events        events.Publisher
	Payments      PaymentGateway // optional
	Cache         PreviewCache   // optional
	Responses     Purger         // optional
	Now           func() time.Time
}

// CreateOrderInput is the checkout request. PaymentInfo is the payment
// intent as returned to the browser; when it carries an id the intent must
// have succeeded.
type CreateOrderInput struct {
	CourseID    string          `json:"courseId"`
	PaymentInfo json.RawMessage `json:"paymentInfo"`
}

// CreateOrder verifies payment, enrolls the user, bumps the course's
// purchase count and records the order. The confirmation mail, the admin
// notification and the order.created event follow; if the mail or the
// notification fail the order stands and ErrDeliveryFailed is returned
// with it.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (model.Order, error) {
	if in.CourseID == "" {
		return model.Order{}, fmt.Errorf("%w: courseId is required", apperr.ErrValidation)
	}
	if err := s.checkPayment(ctx, in.PaymentInfo); err != nil {
		return model.Order{}, err
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return model.Order{}, err
	}
	if user.HasCourse(in.CourseID) {
		return model.Order{}, fmt.Errorf("course %s already purchased: %w", in.CourseID, apperr.ErrAlreadyExists)
	}
	course, err := s.Courses.Get(ctx, in.CourseID)
	if err != nil {
		return model.Order{}, err
	}

	user.Courses = append(user.Courses, model.CourseRef{CourseID: course.ID})
	if err := s.Users.Update(ctx, &user); err != nil {
		return model.Order{}, err
	}
	if _, err := s.Sessions.Replace(ctx, user.ID, user); err != nil {
		return model.Order{}, err
	}
	course, err = mutateCourse(ctx, s.Courses, course.ID, DefaultSaveAttempts, func(c *model.Course) error {
		c.Purchased++
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	order := model.Order{CourseID: course.ID, UserID: user.ID, PaymentInfo: in.PaymentInfo}
	if err := s.Orders.Create(ctx, &order); err != nil {
		return model.Order{}, err
	}
	s.invalidate(ctx, course.ID)

	n := model.Notification{UserID: user.ID, Title: "New Order", Message: "You have a new order from " + course.Name}
	if err := s.Notifications.Create(ctx, &n); err != nil {
		return order, fmt.Errorf("%w: notification: %v", apperr.ErrDeliveryFailed, err)
	}
	err = s.Mail.Send(ctx, mail.Message{
		To:       user.Email,
		Subject:  "Order Confirmation",
		Template: mail.TemplateOrderConfirmation,
		Data: map[string]any{"order": map[string]any{
			"id":    shortID(order.ID),
			"name":  course.Name,
			"price": course.Price,
			"date":  s.now().Format("January 2, 2006"),
		}},
	})
	if err != nil {
		return order, fmt.Errorf("%w: order confirmation mail: %v", apperr.ErrDeliveryFailed, err)
	}
	publish(ctx, s.Events, events.New(events.OrderCreated, order.ID, order))
	return order, nil
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.Orders.List(ctx)
}

// PublishableKey returns the key the browser initializes Stripe with.
func (s *OrderService) PublishableKey() (string, error) {
	if s.Payments == nil {
		return "", ErrPaymentsDisabled
	}
	return s.Payments.PublishableKey(), nil
}

// NewPayment opens a payment intent for amount cents.
func (s *OrderService) NewPayment(ctx context.Context, amount int64) (payment.Intent, error) {
	if amount <= 0 {
		return payment.Intent{}, fmt.Errorf("%w: amount must be positive", apperr.ErrValidation)
	}
	if s.Payments == nil {
		return payment.Intent{}, ErrPaymentsDisabled
	}
	return s.Payments.CreateIntent(ctx, amount)
}

func (s *OrderService) checkPayment(ctx context.Context, info json.RawMessage) error {
	if len(info) == 0 || string(info) == "null" {
		return nil
	}
	var pi struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(info, &pi); err != nil {
		return fmt.Errorf("%w: paymentInfo must be an object", apperr.ErrValidation)
	}
	if pi.ID == "" {
		return nil
	}
	if s.Payments == nil {
		return fmt.Errorf("intent %s: %w", pi.ID, apperr.ErrPaymentNotAuthorized)
	}
	status, err := s.Payments.PaymentStatus(ctx, pi.ID)
	if err != nil {
		return err
	}
	if status != payment.StatusSucceeded {
		return fmt.Errorf("intent %s is %s: %w", pi.ID, status, apperr.ErrPaymentNotAuthorized)
	}
	return nil
}

func (s *OrderService) invalidate(ctx context.Context, courseID string) {
	log := logging.FromContext(ctx)
	if s.Cache != nil {
		if err := s.Cache.Evict(ctx, courseID); err != nil {
			log.Warn("course cache evict failed", "course_id", courseID, "error", err)
		}
	}
	if s.Responses != nil {
		if err := s.Responses.Purge(ctx); err != nil {
			log.Warn("response cache purge failed", "error", err)
		}
	}
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
