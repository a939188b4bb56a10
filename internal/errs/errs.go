// Package errs defines the failure kinds a signal job can end with.
package errs

import "errors"

// Failure kinds. Match them with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrParse         = errors.New("parse error")
	ErrValidation    = errors.New("validation error")
	ErrEmptyInput    = errors.New("empty input")
	ErrMissingColumn = errors.New("missing column")
)

// Error carries a human readable message tagged with a failure kind.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

// New returns an error of the given kind with msg as its text.
func New(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap is New with an underlying cause kept for errors.Is/As.
func Wrap(kind error, cause error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Error returns only the message; the kind and cause are not rendered.
func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
