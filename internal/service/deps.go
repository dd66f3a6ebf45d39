// Package service holds the application logic behind the HTTP handlers.
// Services depend on the small interfaces below rather than on concrete
// repositories so each flow can be tested against in-memory fakes.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/payment"
	"github.com/iliyamo/lms-backend/internal/search"
	"github.com/iliyamo/lms-backend/internal/token"
)

// UserStore is the Credential Store.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *model.User) error
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id string) error
}

// CourseStore persists whole course documents with a version check on Save.
type CourseStore interface {
	Create(ctx context.Context, c *model.Course) error
	Get(ctx context.Context, id string) (model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	Save(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id string) error
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	List(ctx context.Context) ([]model.Order, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id string) (model.Notification, error)
	List(ctx context.Context) ([]model.Notification, error)
	SetStatus(ctx context.Context, id, status string) error
}

type LayoutStore interface {
	Create(ctx context.Context, l *model.Layout) error
	GetByType(ctx context.Context, typ string) (model.Layout, error)
	Update(ctx context.Context, l *model.Layout) error
}

// SessionStore is the Session Cache.
type SessionStore interface {
	Put(ctx context.Context, userID string, snap model.User, ttl time.Duration) error
	Get(ctx context.Context, userID string) (model.User, bool, error)
	Delete(ctx context.Context, userID string) error
	Replace(ctx context.Context, userID string, snap model.User) (bool, error)
}

// TokenIssuer is the Token Issuer.
type TokenIssuer interface {
	IssueActivationToken(u token.PendingUser) (string, string, error)
	VerifyActivationToken(raw, code string) (token.PendingUser, error)
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	VerifyRefreshToken(raw string) (token.Claims, error)
	TTLs() token.TTLs
}

// PreviewCache caches public course previews.
type PreviewCache interface {
	Get(ctx context.Context, id string) (model.Course, bool, error)
	Set(ctx context.Context, c model.Course) error
	Evict(ctx context.Context, id string) error
}

// Purger drops cached HTTP responses for the public catalog.
type Purger interface {
	Purge(ctx context.Context) error
}

// CourseIndex is the full-text course index.
type CourseIndex interface {
	Put(ctx context.Context, c model.Course) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (search.Result, error)
}

// PaymentGateway verifies and opens payment intents.
type PaymentGateway interface {
	PaymentStatus(ctx context.Context, intentID string) (string, error)
	CreateIntent(ctx context.Context, amount int64) (payment.Intent, error)
	PublishableKey() string
}
