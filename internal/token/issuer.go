// Package token issues and verifies the signed credentials used by the
// API: short-lived access tokens, longer-lived refresh tokens and the
// stateless activation token that carries a pending registration.
//
// All tokens are HS256 JWTs. Secrets come in through NewIssuer; the
// package never reads the environment.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/lms-backend/internal/apperr"
)

// Secrets are the HMAC keys for each token kind.
type Secrets struct {
	Access     string
	Refresh    string
	Activation string
}

// TTLs are the lifetimes for each token kind.
type TTLs struct {
	Access     time.Duration
	Refresh    time.Duration
	Activation time.Duration
}

// DefaultTTLs returns 5 minutes for access, 3 days for refresh and 5
// minutes for activation tokens.
func DefaultTTLs() TTLs {
	return TTLs{
		Access:     5 * time.Minute,
		Refresh:    3 * 24 * time.Hour,
		Activation: 5 * time.Minute,
	}
}

// PendingUser is a registration waiting for email confirmation. The
// password is already hashed: the token is signed, not encrypted.
type PendingUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Claims is the payload of access and refresh tokens.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

type activationClaims struct {
	User           PendingUser `json:"user"`
	ActivationCode string      `json:"activationCode"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with the configured secrets.
type Issuer struct {
	secrets Secrets
	ttls    TTLs
	now     func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now, for signing and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer validates the secrets and returns an Issuer. Zero TTL fields
// fall back to DefaultTTLs.
func NewIssuer(s Secrets, ttls TTLs, opts ...Option) (*Issuer, error) {
	if s.Access == "" || s.Refresh == "" || s.Activation == "" {
		return nil, errors.New("token: access, refresh and activation secrets are required")
	}
	if s.Access == s.Refresh {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	def := DefaultTTLs()
	if ttls.Access <= 0 {
		ttls.Access = def.Access
	}
	if ttls.Refresh <= 0 {
		ttls.Refresh = def.Refresh
	}
	if ttls.Activation <= 0 {
		ttls.Activation = def.Activation
	}
	i := &Issuer{secrets: s, ttls: ttls, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// TTLs returns the lifetimes the issuer signs with.
func (i *Issuer) TTLs() TTLs { return i.ttls }

// IssueActivationToken generates a 4-digit code in [1000, 9999] and signs
// {user, activationCode}. It returns the token and the code to mail out.
func (i *Issuer) IssueActivationToken(u PendingUser) (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", "", fmt.Errorf("token: activation code: %w", err)
	}
	code := strconv.FormatInt(n.Int64()+1000, 10)
	claims := activationClaims{
		User:             u,
		ActivationCode:   code,
		RegisteredClaims: i.registered(i.ttls.Activation),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.secrets.Activation))
	if err != nil {
		return "", "", fmt.Errorf("token: sign activation: %w", err)
	}
	return signed, code, nil
}

// VerifyActivationToken returns the pending user when the token verifies
// and the supplied code matches the embedded one.
func (i *Issuer) VerifyActivationToken(raw, code string) (PendingUser, error) {
	var claims activationClaims
	if err := i.parse(raw, i.secrets.Activation, &claims); err != nil {
		return PendingUser{}, fmt.Errorf("%w: %v", apperr.ErrInvalidOrExpired, err)
	}
	if claims.ActivationCode != code {
		return PendingUser{}, apperr.ErrCodeMismatch
	}
	return claims.User, nil
}

// IssueAccessToken signs {id} with the access secret.
func (i *Issuer) IssueAccessToken(userID string) (string, error) {
	return i.sign(userID, i.secrets.Access, i.ttls.Access)
}

// IssueRefreshToken signs {id} with the refresh secret.
func (i *Issuer) IssueRefreshToken(userID string) (string, error) {
	return i.sign(userID, i.secrets.Refresh, i.ttls.Refresh)
}

// VerifyAccessToken checks an access token's signature and expiry.
func (i *Issuer) VerifyAccessToken(raw string) (Claims, error) {
	return i.verify(raw, i.secrets.Access)
}

// VerifyRefreshToken checks a refresh token's signature and expiry.
func (i *Issuer) VerifyRefreshToken(raw string) (Claims, error) {
	return i.verify(raw, i.secrets.Refresh)
}

func (i *Issuer) sign(userID, secret string, ttl time.Duration) (string, error) {
	claims := Claims{ID: userID, RegisteredClaims: i.registered(ttl)}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

func (i *Issuer) verify(raw, secret string) (Claims, error) {
	var claims Claims
	if err := i.parse(raw, secret, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return Claims{}, fmt.Errorf("%w: missing id claim", apperr.ErrInvalidToken)
	}
	return claims, nil
}

// registered builds exp/iat plus a random jti so that two tokens minted
// for the same user within one second are still different strings.
func (i *Issuer) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := i.now().UTC()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (i *Issuer) parse(raw, secret string, claims jwt.Claims) error {
	if raw == "" {
		return errors.New("empty token")
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return err
	}
	if !tok.Valid {
		return errors.New("token not valid")
	}
	return nil
}
