package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/lms-backend/internal/apperr"
)

// MinPasswordLen is the shortest password accepted at registration and on
// password change.
const MinPasswordLen = 6

// MaxPasswordLen is the bcrypt input limit in bytes.
const MaxPasswordLen = 72

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most %d bytes", apperr.ErrValidation, MaxPasswordLen)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidateEmail rejects addresses that are not of the form local@domain.tld.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: please enter a valid email", apperr.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: please enter a valid email", apperr.ErrValidation)
	}
	return nil
}

// ValidatePassword enforces MinPasswordLen and MaxPasswordLen.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", apperr.ErrValidation, MinPasswordLen)
	}
	if len(pw) > MaxPasswordLen {
		return fmt.Errorf("%w: password must be at most %d bytes", apperr.ErrValidation, MaxPasswordLen)
	}
	return nil
}

// RandomPassword returns a random secret for accounts that never log in
// with a password (social sign-in).
func RandomPassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
