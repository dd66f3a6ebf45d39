package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lms-backend/internal/service"
)

// AuthHandler bundles the account endpoints: registration, activation,
// login, social login, logout and token refresh.
type AuthHandler struct {
	Accounts Accounts
	Cookies  Cookies
}

func NewAuthHandler(a Accounts, k Cookies) *AuthHandler {
	return &AuthHandler{Accounts: a, Cookies: k}
}

type activateReq struct {
	ActivationToken string `json:"activationToken"`
	ActivationCode  string `json:"activationCode"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register mails an activation code and returns the activation token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, err := h.Accounts.Register(ctx, req)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{
		"message":         "Please check your email: " + req.Email + " to activate your account!",
		"activationToken": tok,
	})
}

// Activate creates the account from a token and code pair.
func (h *AuthHandler) Activate(c echo.Context) error {
	var req activateReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Accounts.Activate(ctx, req.ActivationToken, req.ActivationCode); err != nil {
		return err
	}
	return ok(c, http.StatusCreated, nil)
}

// Login opens a session and sets the token cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.open(c, s)
}

// SocialAuth logs in (or signs up) a user vouched for by an identity provider.
func (h *AuthHandler) SocialAuth(c echo.Context) error {
	var req service.SocialInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Accounts.SocialAuth(ctx, req)
	if err != nil {
		return err
	}
	return h.open(c, s)
}

// Logout deletes the session and clears the cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	h.Cookies.Clear(c)
	if err := h.Accounts.Logout(ctx, u.ID); err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Refresh rotates both tokens. The refresh token comes from the cookie or
// the refresh-token header.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Accounts.Refresh(ctx, refreshToken(c))
	if err != nil {
		return err
	}
	h.Cookies.Set(c, s.AccessToken, s.RefreshToken)
	return ok(c, http.StatusOK, echo.Map{"accessToken": s.AccessToken})
}

// Me returns the caller's session snapshot.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"user": u})
}

func (h *AuthHandler) open(c echo.Context, s service.Session) error {
	h.Cookies.Set(c, s.AccessToken, s.RefreshToken)
	return ok(c, http.StatusOK, echo.Map{"user": s.User, "accessToken": s.AccessToken})
}
