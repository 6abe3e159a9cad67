package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert collides with an existing key.
	ErrDuplicate = errors.New("entity already exists")

	// ErrConflict is returned by compare-and-swap when the stored version no
	// longer matches the expected one. Callers re-read and retry.
	ErrConflict = errors.New("version conflict")

	// ErrUnavailable is returned when the backing store cannot be reached.
	// Scheduled jobs treat it as fatal and abort before publishing anything.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrCardNotFound indicates that the user has no stored card for the question.
	ErrCardNotFound = fmt.Errorf("%w: review card", ErrNotFound)

	// ErrProfileNotFound indicates that the user has no profile yet.
	ErrProfileNotFound = fmt.Errorf("%w: user profile", ErrNotFound)

	// ErrDailyStatNotFound indicates that no stat exists for the user and day.
	ErrDailyStatNotFound = fmt.Errorf("%w: daily stat", ErrNotFound)

	// ErrSnapshotNotFound indicates that no ranking snapshot has been published.
	ErrSnapshotNotFound = fmt.Errorf("%w: ranking snapshot", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether the operation may succeed if repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "review_card", "ranking_snapshot")
	Operation string // The operation that failed (e.g., "compare_and_swap", "publish")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Entity, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
