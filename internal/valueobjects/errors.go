package valueobjects

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy of spec.md §7.
type ErrorKind string

const (
	ErrValidation         ErrorKind = "validation_error"
	ErrParse              ErrorKind = "parse_error"
	ErrBusiness           ErrorKind = "business_error"
	ErrToolNotFound       ErrorKind = "tool_not_found"
	ErrToolDeprecated     ErrorKind = "tool_deprecated"
	ErrToolExecutionFailed ErrorKind = "tool_execution_failed"
	ErrNodeExecution      ErrorKind = "node_execution_error"
	ErrTimeout            ErrorKind = "timeout"
	ErrCancelled           ErrorKind = "cancelled"
	ErrInvalidTransition  ErrorKind = "invalid_transition"
	ErrQuotaExceeded      ErrorKind = "quota_exceeded"
	ErrRepositoryUnavailable ErrorKind = "repository_unavailable"
	ErrInvalidRequest     ErrorKind = "invalid_request"
	ErrInvalidContext     ErrorKind = "invalid_context"
	ErrConnectionClosed   ErrorKind = "connection_closed"
)

// TaxonomyError wraps an underlying error with a closed ErrorKind so
// transport adapters can map kind to a status without string-matching
// messages.
type TaxonomyError struct {
	Kind      ErrorKind
	Retryable bool
	Err       error
}

func (e *TaxonomyError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *TaxonomyError) Unwrap() error { return e.Err }

// Wrap builds a TaxonomyError of the given kind around err.
func Wrap(kind ErrorKind, err error) *TaxonomyError {
	return &TaxonomyError{Kind: kind, Err: err}
}

// WrapRetryable builds a retryable TaxonomyError of the given kind.
func WrapRetryable(kind ErrorKind, err error) *TaxonomyError {
	return &TaxonomyError{Kind: kind, Retryable: true, Err: err}
}

// Newf builds a TaxonomyError from a formatted message.
func Newf(kind ErrorKind, format string, args ...any) *TaxonomyError {
	return &TaxonomyError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is a
// *TaxonomyError, otherwise reports false.
func KindOf(err error) (ErrorKind, bool) {
	var te *TaxonomyError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}
