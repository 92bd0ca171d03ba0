package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session manager
var (
	// Credential errors
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUserExists         = errors.New("user already registered")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")

	// Session errors
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrSessionExpired    = errors.New("session expired")
	ErrNoRefreshToken    = errors.New("no refresh token")
	ErrStaleRefresh      = errors.New("refresh result is stale")
	ErrInvalidOAuthState = errors.New("invalid oauth state")

	// Storage errors
	ErrNotFound       = errors.New("not found")
	ErrStorageCorrupt = errors.New("stored value is corrupt")
	ErrValueTooLarge  = errors.New("value exceeds storage limit")

	// General errors
	ErrBackendUnavailable = errors.New("auth backend unavailable")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInternal           = errors.New("internal error")
	ErrStoreClosed        = errors.New("store is closed")
)

// BackendError is an error reported by the auth backend itself, carrying a message
// that is safe to show to the user.
type BackendError struct {
	Code    string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// GenericMessage is shown for network and unexpected failures.
const GenericMessage = "Something went wrong. Please try again."

// UserMessage maps an error to the human readable string surfaced on the store.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrUserExists):
		return "An account with this email already exists."
	case errors.Is(err, ErrEmailNotConfirmed):
		return "Please confirm your email address before signing in."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrInvalidOAuthState):
		return "The sign-in link is invalid or has expired."
	}
	return GenericMessage
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
