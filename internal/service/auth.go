package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/events"
	"github.com/iliyamo/lms-backend/internal/logging"
	"github.com/iliyamo/lms-backend/internal/mail"
	"github.com/iliyamo/lms-backend/internal/model"
	"github.com/iliyamo/lms-backend/internal/token"
	"github.com/iliyamo/lms-backend/internal/utils"
)

// AuthService owns the account lifecycle: registration with e-mailed
// activation codes, password and social login, logout and token refresh.
//
// A user is logged in exactly while their Session Cache entry exists.
// Login and Refresh are the only operations that Put it (and so set its
// TTL); Logout deletes it.
type AuthService struct {
	Users      UserStore
	Sessions   SessionStore
	Tokens     TokenIssuer
	Mail       mail.Sender
	Events     events.Publisher
	SessionTTL time.Duration
	BcryptCost int
}

// Session is what a successful login or refresh hands back to the edge:
// the user snapshot plus the two tokens to set as cookies.
type Session struct {
	User         model.User
	AccessToken  string
	RefreshToken string
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register validates the form, mails an activation code and returns the
// activation token. Nothing is persisted until Activate.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return "", fmt.Errorf("%w: please enter your name", apperr.ErrValidation)
	}
	if err := utils.ValidateEmail(in.Email); err != nil {
		return "", err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return "", err
	}
	exists, err := s.Users.EmailExists(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("email %s: %w", in.Email, apperr.ErrAlreadyExists)
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	tok, code, err := s.Tokens.IssueActivationToken(token.PendingUser{
		Name: in.Name, Email: strings.TrimSpace(in.Email), PasswordHash: hash,
	})
	if err != nil {
		return "", err
	}

	err = s.Mail.Send(ctx, mail.Message{
		To:       strings.TrimSpace(in.Email),
		Subject:  "Activate your account",
		Template: mail.TemplateActivation,
		Data: map[string]any{
			"user":           map[string]any{"name": in.Name},
			"activationCode": code,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: activation mail: %v", apperr.ErrDeliveryFailed, err)
	}
	return tok, nil
}

// Activate checks the token and code and creates the (unverified) user.
func (s *AuthService) Activate(ctx context.Context, activationToken, code string) (model.User, error) {
	pending, err := s.Tokens.VerifyActivationToken(activationToken, code)
	if err != nil {
		return model.User{}, err
	}
	exists, err := s.Users.EmailExists(ctx, pending.Email)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, fmt.Errorf("email %s: %w", pending.Email, apperr.ErrAlreadyExists)
	}

	u := model.User{
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		Role:         model.RoleUser,
	}
	if err := s.Users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	s.publish(ctx, events.New(events.UserRegistered, u.ID, u.Summary()))
	return u, nil
}

// Login checks credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, fmt.Errorf("%w: please enter email and password", apperr.ErrValidation)
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return Session{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, apperr.ErrInvalidCredentials
	}
	return s.open(ctx, u)
}

// SocialInput is what the frontend got from the identity provider.
type SocialInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// SocialAuth logs in the account for the provider-verified e-mail,
// creating it (verified, with an unusable random password) on first use.
func (s *AuthService) SocialAuth(ctx context.Context, in SocialInput) (Session, error) {
	if err := utils.ValidateEmail(in.Email); err != nil {
		return Session{}, err
	}
	u, err := s.Users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return s.open(ctx, u)
	case !errors.Is(err, apperr.ErrNotFound):
		return Session{}, err
	}

	pw, err := utils.RandomPassword()
	if err != nil {
		return Session{}, fmt.Errorf("random password: %w", err)
	}
	hash, err := utils.HashPassword(pw, s.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u = model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Avatar:       in.Avatar,
		Role:         model.RoleUser,
		IsVerified:   true,
	}
	if err := s.Users.Create(ctx, &u); err != nil {
		return Session{}, err
	}
	s.publish(ctx, events.New(events.UserRegistered, u.ID, u.Summary()))
	return s.open(ctx, u)
}

// Logout ends the session. Tokens already handed out stop working at the
// Auth Gate's session lookup.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.Sessions.Delete(ctx, userID)
}

// Refresh rotates both tokens for a live session and resets its TTL.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, apperr.ErrNoToken
	}
	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return Session{}, err
	}
	snap, ok, err := s.Sessions.Get(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, apperr.ErrSessionExpired
	}
	return s.open(ctx, snap)
}

// open issues a token pair and (re)writes the session with a full TTL.
func (s *AuthService) open(ctx context.Context, u model.User) (Session, error) {
	access, err := s.Tokens.IssueAccessToken(u.ID)
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(u.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.Sessions.Put(ctx, u.ID, u, s.sessionTTL()); err != nil {
		return Session{}, err
	}
	return Session{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 7 * 24 * time.Hour
}

func (s *AuthService) publish(ctx context.Context, ev events.Event) {
	publish(ctx, s.Events, ev)
}

// publishTimeout bounds a single event publish. It runs on a context
// detached from the request so a slow broker cannot eat the request deadline.
var publishTimeout = 2 * time.Second

// publish sends a domain event. Events are informational: a broker outage
// is logged and never fails the request. Call it after the required side
// effects have run.
func publish(ctx context.Context, p events.Publisher, ev events.Event) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(pctx, ev); err != nil {
		logging.FromContext(ctx).Warn("domain event not published", "type", ev.Type, "key", ev.Key, "error", err)
	}
}
