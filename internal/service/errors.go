package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals missing or malformed fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates no matching record.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers duplicates, amount mismatches and expired codes.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState indicates the action is not allowed in the record's lifecycle state.
	ErrInvalidState = errors.New("invalid state")
)

// Error carries a client facing message alongside one of the sentinel kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the client facing text of err.
func Message(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return err.Error()
}
