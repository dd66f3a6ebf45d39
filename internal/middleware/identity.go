package middleware

// identity.go carries the authenticated user through the request context.
// The Auth Gate stores the session snapshot here; handlers read it back
// with IdentityFrom and pass it explicitly to the services.

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/model"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the user.
func WithIdentity(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFrom returns the user attached by Authenticate.
func IdentityFrom(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(identityKey{}).(model.User)
	return u, ok
}

// Identity is IdentityFrom for an echo context.
func Identity(c echo.Context) (model.User, bool) {
	return IdentityFrom(c.Request().Context())
}

// setIdentity attaches the user to the request held by c.
func setIdentity(c echo.Context, u model.User) {
	c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), u)))
}

// userKey identifies the caller for rate limiting: the user id when
// authenticated, "anon" otherwise.
func userKey(c echo.Context) string {
	if u, ok := Identity(c); ok && u.ID != "" {
		return u.ID
	}
	return "anon"
}
