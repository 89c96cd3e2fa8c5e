// Package apperrors defines the domain error taxonomy. Every business-rule
// failure is one of five kinds; anything else is treated as a storage or
// infrastructure fault and surfaced as service-unavailable.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound marks a referenced entity as absent, or present but
	// deliberately not disclosed to the caller.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an authenticated caller as not permitted.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest marks a business-rule violation such as a self-follow,
	// a duplicate relation, or removing a relation that does not exist.
	ErrBadRequest = errors.New("bad request")
	// ErrConflict marks a uniqueness violation on create.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized marks a missing, invalid or expired token, or a
	// failed login.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error couples a taxonomy kind with a short caller-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

func BadRequest(msg string) error { return &Error{Kind: ErrBadRequest, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }

// HTTPStatus maps an error to its response status. Errors outside the
// taxonomy are per-request fatal and map to 503.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}

// Detail returns the caller-facing message for err. Errors outside the
// taxonomy get a generic message so internals never leak to clients.
func Detail(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "service unavailable"
}
