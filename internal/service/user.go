package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/utils"
)

// UserService handles profile changes and user administration. After every
// change the user's session snapshot is replaced in place so the Auth Gate
// sees the new name or role on the next request; the session's TTL is left
// alone.
type UserService struct {
	Users      UserStore
	Sessions   SessionStore
	BcryptCost int
}

// UpdateInfo changes the display name.
func (s *UserService) UpdateInfo(ctx context.Context, userID, name string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	return s.change(ctx, userID, func(u *model.User) error {
		u.Name = name
		return nil
	})
}

// UpdatePassword replaces the password after checking the old one.
func (s *UserService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (model.User, error) {
	if oldPassword == "" || newPassword == "" {
		return model.User{}, fmt.Errorf("%w: please enter old and new password", apperr.ErrValidation)
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return model.User{}, err
	}
	return s.change(ctx, userID, func(u *model.User) error {
		if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
			return fmt.Errorf("%w: invalid old password", apperr.ErrValidation)
		}
		hash, err := utils.HashPassword(newPassword, s.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		return nil
	})
}

// UpdateAvatar sets the avatar URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, avatar string) (model.User, error) {
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return model.User{}, fmt.Errorf("%w: avatar is required", apperr.ErrValidation)
	}
	return s.change(ctx, userID, func(u *model.User) error {
		u.Avatar = avatar
		return nil
	})
}

// ListUsers returns every user, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.Users.List(ctx)
}

// UpdateRole sets the role of the user with the given e-mail.
func (s *UserService) UpdateRole(ctx context.Context, email, role string) (model.User, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return model.User{}, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, role)
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	return s.change(ctx, u.ID, func(u *model.User) error {
		u.Role = role
		return nil
	})
}

// DeleteUser removes the account and ends its session.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.Users.Delete(ctx, userID); err != nil {
		return err
	}
	return s.Sessions.Delete(ctx, userID)
}

// change loads the user, applies fn, persists and refreshes the session
// snapshot. fn returning an error aborts before anything is written.
func (s *UserService) change(ctx context.Context, userID string, fn func(*model.User) error) (model.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if err := fn(&u); err != nil {
		return model.User{}, err
	}
	if err := s.Users.Update(ctx, &u); err != nil {
		return model.User{}, err
	}
	if _, err := s.Sessions.Replace(ctx, u.ID, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}
