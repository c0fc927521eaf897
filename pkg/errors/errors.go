package cadastro_errors

import "errors"

// Common errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrMalformedRequest   = errors.New("malformed request")
	ErrMethodNotAllowed   = errors.New("method not allowed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrMisconfigured      = errors.New("server configuration invalid")
)

// Error pairs one of the sentinel kinds above with a message that is safe to
// show to the client. errors.Is matches on the kind.
type Error struct {
	Kind    error
	Message string
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// PublicMessage returns the client-facing message carried by err, or
// fallback when err carries none.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
