package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/middleware"
)

// RefreshHeader is accepted in place of the refresh cookie by clients that
// cannot hold cookies.
const RefreshHeader = "refresh-token"

// Cookies sets and clears the token cookies. The lifetimes match the token
// TTLs so the browser drops a cookie when its token expires.
type Cookies struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secure     bool
}

func (k Cookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   k.Secure,
	}
}

// Set writes both token cookies.
func (k Cookies) Set(c echo.Context, access, refresh string) {
	c.SetCookie(k.cookie(middleware.AccessCookie, access, k.AccessTTL))
	c.SetCookie(k.cookie(middleware.RefreshCookie, refresh, k.RefreshTTL))
}

// Clear expires both token cookies.
func (k Cookies) Clear(c echo.Context) {
	for _, name := range []string{middleware.AccessCookie, middleware.RefreshCookie} {
		ck := k.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func refreshToken(c echo.Context) string {
	if ck, err := c.Cookie(middleware.RefreshCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return c.Request().Header.Get(RefreshHeader)
}
