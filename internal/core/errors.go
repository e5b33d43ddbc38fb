package core

import "errors"

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

var (
	// ErrNotFound covers both absent records and records owned by another user.
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrInvalidAmount = &ValidationError{Field: "amount", Msg: "invalid amount"}
	ErrEmptyTitle    = &ValidationError{Field: "title", Msg: "empty title"}
	ErrMissingOwner  = &ValidationError{Field: "user", Msg: "record has no owner"}
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
