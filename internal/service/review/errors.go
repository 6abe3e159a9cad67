package review

import (
	"errors"
	"fmt"

	"github.com/eddy80524/dental-quiz-app/internal/store"
)

// Errors returned by the review service.
var (
	// ErrInvalidInput indicates a missing user or question id.
	ErrInvalidInput = errors.New("invalid review input")

	// ErrConflictExhausted indicates that every compare-and-swap attempt lost
	// to a concurrent submission for the same card. It wraps store.ErrConflict.
	ErrConflictExhausted = fmt.Errorf("%w: retries exhausted", store.ErrConflict)
)

// ServiceError wraps errors from the review service with the failed operation.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_answer", "get_due_slate")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may resubmit the same request.
func (e *ServiceError) Retryable() bool {
	return store.IsRetryable(e.Err)
}

// NewSubmitAnswerError returns a new ServiceError for the submit_answer operation.
func NewSubmitAnswerError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "submit_answer",
		Message:   message,
		Err:       err,
	}
}

// NewGetDueSlateError returns a new ServiceError for the get_due_slate operation.
func NewGetDueSlateError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "get_due_slate",
		Message:   message,
		Err:       err,
	}
}
