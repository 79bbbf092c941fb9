package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation")
	ErrNotFound        = errors.New("not found")
	ErrPermission      = errors.New("permission denied")
	ErrAuthentication  = errors.New("authentication failed")
	ErrAccountDisabled = errors.New("account disabled")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage")
)

const (
	msgForbidden      = "Given user does not have the necessary rights for this operation!"
	msgEmailInUse     = "The email address you entered is already in use. Please use a different email."
	msgBadCredentials = "Incorrect username or password!"
	msgInactiveUser   = "Inactive user"
	msgInvalidToken   = "Could not validate credentials"
)

// Error carries a caller-facing message next to the sentinel it wraps.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newErr(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func storageErr(cause error, format string, args ...any) error {
	return &Error{Kind: ErrStorage, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Message extracts the caller-facing text of err, or "" when err carries none.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}
