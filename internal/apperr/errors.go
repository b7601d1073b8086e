// Package apperr holds the error kinds shared by the domain packages and the
// HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrUnauthenticated        = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden")
	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrPrecondition           = errors.New("precondition failed")
	ErrDemoReadOnly           = errors.New("demo mode is read-only")
)

// NotMemberMessage is shown whenever the caller is not part of the group.
const NotMemberMessage = "you are not a member of this group"

// Error carries a short user-facing message next to its kind and the
// underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }
func NotFound(format string, args ...any) error   { return newf(ErrNotFound, format, args...) }
func Conflict(format string, args ...any) error   { return newf(ErrConflict, format, args...) }
func Forbidden(format string, args ...any) error  { return newf(ErrForbidden, format, args...) }
func Precondition(format string, args ...any) error {
	return newf(ErrPrecondition, format, args...)
}

// NotMember is the fixed authorization failure.
func NotMember() error { return &Error{Kind: ErrForbidden, Message: NotMemberMessage} }

// Unauthenticated is returned when no identity is attached to the call.
func Unauthenticated() error {
	return &Error{Kind: ErrUnauthenticated, Message: "you must be signed in"}
}

// DemoReadOnly rejects writes against the demo dataset.
func DemoReadOnly() error {
	return &Error{Kind: ErrDemoReadOnly, Message: "the demo group is read-only"}
}

// InsufficientPermission wraps a permission-denied failure from storage with
// a friendlier message.
func InsufficientPermission(message string, err error) error {
	return &Error{Kind: ErrInsufficientPermission, Message: message, Err: err}
}

// Message returns the text to show a user. Errors without a kind surface
// their raw message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
