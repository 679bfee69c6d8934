package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
// Nested fields are dot separated (eg. "Math.Alice.CE-3A").
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

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// FieldMap renders the field errors as {field: message}. The first message of a field wins.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		if _, ok := m[fErr.Field]; !ok {
			m[fErr.Field] = fErr.Error
		}
	}
	return m
}

// FieldErrors accumulates field errors while checking a whole document.
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, msg string) {
	*fe = append(*fe, FieldError{Field: field, Error: msg})
}

// Err returns nil when nothing was added, else a *ValidationError holding every field error.
func (fe FieldErrors) Err(msg string) error {
	if len(fe) == 0 {
		return nil
	}
	return NewValidationError(errors.Errorf("%s: %d error(s)", msg, len(fe)), fe...)
}

type shutdown struct {
	message string
}

// NewShutdownError flags a condition the process cannot recover from (eg. a closed store);
// the API shuts down gracefully when a request fails with it.
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
