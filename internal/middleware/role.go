package middleware // middleware provides shared request processing for handlers

import (
	"fmt"

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/lms-backend/internal/apperr"
)

// AuthorizeRoles returns a middleware that lets the request through only
// when the authenticated identity's role is one of roles. It must run
// after Authenticate; without an identity the request is treated as
// unauthenticated rather than forbidden.
func AuthorizeRoles(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant-time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := Identity(c)
			if !ok {
				return apperr.ErrNoToken
			}
			if !allowed[u.Role] {
				return fmt.Errorf("role %q: %w", u.Role, apperr.ErrForbidden)
			}
			return next(c)
		}
	}
}
