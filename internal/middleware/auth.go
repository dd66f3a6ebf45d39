package middleware // middleware holds the echo middleware shared by all route groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/token"
)

// AccessCookie and RefreshCookie are the cookie names set by login and
// refresh.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// AccessVerifier verifies access tokens.
type AccessVerifier interface {
	VerifyAccessToken(raw string) (token.Claims, error)
}

// SessionReader looks up live sessions.
type SessionReader interface {
	Get(ctx context.Context, userID string) (model.User, bool, error)
}

// Gate is the Auth Gate: it turns a raw access token into an identity or a
// rejection. The steps run in order and the first failure is terminal:
//
//	no token        -> ErrNoToken
//	bad/expired     -> ErrInvalidToken
//	no session      -> ErrNoSession
//	otherwise       -> the cached snapshot
type Gate struct {
	Tokens   AccessVerifier
	Sessions SessionReader
}

// NewGate returns a Gate over the given verifier and session store.
func NewGate(tokens AccessVerifier, sessions SessionReader) *Gate {
	return &Gate{Tokens: tokens, Sessions: sessions}
}

// Check runs the gate for a raw token.
func (g *Gate) Check(ctx context.Context, raw string) (model.User, error) {
	if raw == "" {
		return model.User{}, apperr.ErrNoToken
	}
	claims, err := g.Tokens.VerifyAccessToken(raw)
	if err != nil {
		return model.User{}, err
	}
	u, ok, err := g.Sessions.Get(ctx, claims.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("auth gate: %w", err)
	}
	if !ok {
		return model.User{}, apperr.ErrNoSession
	}
	return u, nil
}

// Authenticate returns the echo middleware form of the gate. The token is
// taken from the access_token cookie, falling back to an
// "Authorization: Bearer" header for non-browser clients.
func (g *Gate) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := g.Check(c.Request().Context(), accessToken(c))
			if err != nil {
				return err
			}
			setIdentity(c, u)
			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
