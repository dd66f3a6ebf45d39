package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// UserHandler serves profile edits and user administration.
type UserHandler struct {
	Profiles Profiles
}

func NewUserHandler(p Profiles) *UserHandler { return &UserHandler{Profiles: p} }

type updateInfoReq struct {
	Name string `json:"name"`
}

type updatePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAvatarReq struct {
	Avatar string `json:"avatar"`
}

type updateRoleReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *UserHandler) UpdateInfo(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req updateInfoReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err = h.Profiles.UpdateInfo(ctx, u.ID, req.Name)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"user": u})
}

func (h *UserHandler) UpdatePassword(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req updatePasswordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err = h.Profiles.UpdatePassword(ctx, u.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"user": u})
}

func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req updateAvatarReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err = h.Profiles.UpdateAvatar(ctx, u.ID, req.Avatar)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, echo.Map{"user": u})
}

// ListUsers is admin only.
func (h *UserHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Profiles.ListUsers(ctx)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"users": users})
}

// UpdateRole is admin only.
func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req updateRoleReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Profiles.UpdateRole(ctx, req.Email, req.Role)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"user": u})
}

// DeleteUser is admin only.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Profiles.DeleteUser(ctx, c.Param("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
