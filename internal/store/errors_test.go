package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityErrorsWrapBaseErrors(t *testing.T) {
	for _, err := range []error{ErrCardNotFound, ErrProfileNotFound, ErrDailyStatNotFound, ErrSnapshotNotFound} {
		assert.True(t, IsNotFoundError(err), "%v should be a not found error", err)
		assert.True(t, IsNotFoundError(fmt.Errorf("lookup: %w", err)))
	}
	assert.False(t, IsNotFoundError(ErrConflict))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("cas: %w", ErrConflict)))
	assert.True(t, IsRetryable(ErrUnavailable))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestStoreError(t *testing.T) {
	err := NewStoreError("review_card", "compare_and_swap", "version mismatch", ErrConflict)

	assert.Equal(t, "review_card compare_and_swap: version mismatch: version conflict", err.Error())
	assert.ErrorIs(t, err, ErrConflict)

	var storeErr *StoreError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &storeErr))
	assert.Equal(t, "review_card", storeErr.Entity)

	bare := NewStoreError("ranking_snapshot", "publish", "empty batch", nil)
	assert.Equal(t, "ranking_snapshot publish: empty batch", bare.Error())
}
