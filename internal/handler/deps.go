package handler

import (
	"context"
	"encoding/json"

	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/payment"
	"github.com/iliyamo/lms-backend/internal/search"
	"github.com/iliyamo/lms-backend/internal/service"
)

// The interfaces below are the slices of the service layer each handler
// calls. *service.AuthService, *service.UserService and the others satisfy
// them.

type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (string, error)
	Activate(ctx context.Context, activationToken, code string) (model.User, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	SocialAuth(ctx context.Context, in service.SocialInput) (service.Session, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (service.Session, error)
}

type Profiles interface {
	UpdateInfo(ctx context.Context, userID, name string) (model.User, error)
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (model.User, error)
	UpdateAvatar(ctx context.Context, userID, avatar string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, email, role string) (model.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

type Catalog interface {
	Create(ctx context.Context, c model.Course) (model.Course, error)
	Edit(ctx context.Context, id string, patch json.RawMessage) (model.Course, error)
	Get(ctx context.Context, id string) (model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	ListFull(ctx context.Context) ([]model.Course, error)
	Delete(ctx context.Context, id string) error
	GetContent(ctx context.Context, user model.User, courseID string) ([]model.CourseContent, error)
	Search(ctx context.Context, query string, page, size int) (search.Result, error)
	AddQuestion(ctx context.Context, user model.User, in service.QuestionInput) (model.Course, error)
	AddAnswer(ctx context.Context, user model.User, in service.AnswerInput) (model.Course, error)
	AddReview(ctx context.Context, user model.User, courseID string, in service.ReviewInput) (model.Course, error)
	AddReply(ctx context.Context, user model.User, in service.ReplyInput) (model.Course, error)
}

type Checkout interface {
	CreateOrder(ctx context.Context, userID string, in service.CreateOrderInput) (model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	PublishableKey() (string, error)
	NewPayment(ctx context.Context, amount int64) (payment.Intent, error)
}

type Feed interface {
	List(ctx context.Context) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) ([]model.Notification, error)
}

type Layouts interface {
	Create(ctx context.Context, in model.Layout) (model.Layout, error)
	Edit(ctx context.Context, in model.Layout) (model.Layout, error)
	Get(ctx context.Context, typ string) (model.Layout, error)
}
