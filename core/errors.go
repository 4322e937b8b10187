package core

import (
	"github.com/pkg/errors"
)

// error kinds
var (
	ErrMissingField       = errors.New("missing field")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrInvalidRange       = errors.New("invalid range")
	ErrInvalidCalendarDay = errors.New("invalid calendar day")
	ErrFutureDate         = errors.New("future date")
	ErrUnderMinimumAge    = errors.New("under minimum age")
	ErrRemoteUnavailable  = errors.New("remote service unavailable")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("permission denied")
	ErrInvalidTransition  = errors.New("invalid transition")
)

// InputError is a rejected input value. Kind is one of the error kinds above.
type InputError struct {
	Kind    error
	Field   string
	Message string
}

func NewInputError(kind error, field, msg string) *InputError {
	return &InputError{Kind: kind, Field: field, Message: msg}
}

func (err *InputError) Error() string { return err.Message }
func (err *InputError) Unwrap() error { return err.Kind }

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewInputValidationError collects input errors into a single ValidationError.
// The first error's kind is kept as the ValidationError's cause.
func NewInputValidationError(errs ...*InputError) error {
	if len(errs) == 0 {
		return nil
	}
	flds := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		flds = append(flds, FieldError{Field: e.Field, Error: e.Message})
	}
	return &ValidationError{Err: errs[0], Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// FieldMessage returns the message reported for `field`, if any.
func (err ValidationError) FieldMessage(field string) (string, bool) {
	for _, f := range err.Fields {
		if f.Field == field {
			return f.Error, true
		}
	}
	return "", false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
