// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	// ErrorInvalidUser is returned for a record failing a table check, such
	// as one with no way to log in.
	ErrorInvalidUser = errors.New("invalid user record")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Error kinds. Every Error below unwraps to exactly one of them and the
	// HTTP layer picks the status code from the kind.
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("resource not found")
)

// Error is a client-facing error: Message is safe to show to the caller,
// Kind classifies it.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation errors.
var (
	ErrLoginFieldsRequired = NewError(ErrValidation, "Email and password are required")
	ErrAllFieldsRequired   = NewError(ErrValidation, "All fields are required")
	ErrProfileImageMissing = NewError(ErrValidation, "Profile image is required")
	ErrEmailRequired       = NewError(ErrValidation, "Email is required")
	ErrFullNameRequired    = NewError(ErrValidation, "Full name is required")
	ErrInvalidRequestBody  = NewError(ErrValidation, "Invalid request body")
	ErrUploadTooLarge      = NewError(ErrValidation, "Uploaded file is too large")
)

// Conflict errors.
var (
	ErrEmailExists      = NewError(ErrConflict, "Email already exists")
	ErrUserNameExists   = NewError(ErrConflict, "Username already exists")
	ErrExternalIDExists = NewError(ErrConflict, "External account is already linked")
)

// Auth errors.
var (
	ErrInvalidCredentials = NewError(ErrUnauthorized, "Invalid email or password")
	ErrUseExternalLogin   = NewError(ErrUnauthorized, "This account is linked with Google, please log in using Google.")
	ErrMissingToken       = NewError(ErrUnauthorized, "Authorization token is required")
	ErrInvalidToken       = NewError(ErrUnauthorized, "invalid or expired token")
)

// Not-found errors.
var (
	ErrUserNotFound = NewError(ErrNotFound, "User not found")
)
