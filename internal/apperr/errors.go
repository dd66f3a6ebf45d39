// Package apperr defines the error taxonomy shared by the token, session,
// service and handler layers. Lower layers return (or wrap) these sentinel
// values and the HTTP edge maps them to status codes with Status. Nothing
// below the handler layer knows about HTTP.
package apperr

import (
	"errors"
	"net/http"
)

// Authentication and session failures.
var (
	// ErrNoToken means the request carried no access or refresh token.
	ErrNoToken = errors.New("please login to access this resource")
	// ErrInvalidToken covers bad signatures, wrong algorithms and expiry.
	ErrInvalidToken = errors.New("token is not valid")
	// ErrNoSession means the token verified but no live session exists.
	ErrNoSession = errors.New("session not found, please login again")
	// ErrSessionExpired is returned by the refresh flow when the session is gone.
	ErrSessionExpired = errors.New("please login to access this resource")
	// ErrForbidden is a role mismatch on a role-gated operation.
	ErrForbidden = errors.New("role is not allowed to access this resource")
	// ErrInvalidOrExpired is an activation token that failed verification.
	ErrInvalidOrExpired = errors.New("activation token is invalid or expired")
	// ErrCodeMismatch is a correctly signed activation token with the wrong code.
	ErrCodeMismatch = errors.New("invalid activation code")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Resource failures.
var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrValidation           = errors.New("validation failed")
	ErrNotEligible          = errors.New("you are not eligible to access this course")
	ErrPaymentNotAuthorized = errors.New("payment is not authorized")
	// ErrConflict is a lost optimistic-concurrency race on a document save.
	ErrConflict = errors.New("document was modified concurrently")
	// ErrDeliveryFailed marks a side effect (mail, notification) that failed
	// after the primary change was already persisted.
	ErrDeliveryFailed = errors.New("downstream delivery failed")
)

// Status maps an error (possibly wrapped) to the HTTP status the API
// responds with. Unknown errors are internal server errors.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNoToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrNoSession),
		errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidOrExpired),
		errors.Is(err, ErrCodeMismatch),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrPaymentNotAuthorized):
		return http.StatusBadRequest
	case errors.Is(err, ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
