package core

import "github.com/pkg/errors"

// FieldError ties a validation message to a single struct field, keyed by the
// field's JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports invalid input, either as a global message (Err) or
// as per-field messages (Fields).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap flattens Fields into the field-to-message map rendered in API
// error responses. Returns nil when there are no field errors.
func (err ValidationError) FieldMap() map[string]string {
	if err.Fields == nil {
		return nil
	}
	flds := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

type shutdown struct {
	message string
}

// NewShutdownError flags an error as fatal to the process; the API error
// handler reacts to it by triggering a graceful shutdown.
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
