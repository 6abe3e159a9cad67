package store

import (
	"context"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// ReviewCardStore holds per-user SM-2 card state keyed by (userID, questionID).
type ReviewCardStore interface {
	// Get returns the stored card or ErrCardNotFound. On the answer path a
	// missing card means "never studied", not a failure.
	Get(ctx context.Context, userID, questionID string) (*domain.ReviewCard, error)

	// CompareAndSwap writes card only if the stored version equals
	// expectedVersion. An expectedVersion of 0 requires that no card exists.
	// On success the stored card, carrying its new version, is returned.
	// A mismatch returns ErrConflict and leaves the store unchanged.
	CompareAndSwap(
		ctx context.Context,
		userID, questionID string,
		expectedVersion int64,
		card *domain.ReviewCard,
	) (*domain.ReviewCard, error)

	// ListByUser returns every stored card of the user.
	ListByUser(ctx context.Context, userID string) ([]*domain.ReviewCard, error)
}
