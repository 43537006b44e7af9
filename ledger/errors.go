package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("not enough permissions")
	ErrBadCredentials    = errors.New("incorrect username or password")
	ErrInactiveUser      = errors.New("inactive user")
	ErrInvalidTransition = errors.New("transaction cannot move to the requested state")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrUsernameTaken     = errors.New("username already exists")
)

// ValidationError is returned for requests that are well formed but break a ledger rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
