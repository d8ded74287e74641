package audit

import (
	"errors"
	"fmt"
)

// ErrProviderNotConfigured is returned when no model-provider credential is
// present. Maps to 503: a configuration gap, not a bug.
var ErrProviderNotConfigured = errors.New("model provider not configured")

// ValidationError is a user-facing 4xx-equivalent input failure. It is never
// retried and short-circuits before any external call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AnalysisError wraps the last provider error after the retry budget is
// exhausted or the output stayed persistently malformed.
type AnalysisError struct {
	Attempts int
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
