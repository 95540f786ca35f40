package core

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a lookup for an entity that does not exist for the
// tenant. Check with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError rejects malformed input before any persistence write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with fmt-style formatting.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalServiceError wraps a failure of the text-generation oracle or any
// other outbound dependency. Callers of AI-assisted features degrade to an
// empty result instead of propagating it as a hard failure.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// IsExternal reports whether err is (or wraps) an ExternalServiceError.
func IsExternal(err error) bool {
	var ee *ExternalServiceError
	return errors.As(err, &ee)
}
