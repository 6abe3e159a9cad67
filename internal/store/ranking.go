package store

import (
	"context"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// RankingStore keeps immutable ranking snapshots keyed by (variant, version)
// and a pointer to the current version of each variant.
type RankingStore interface {
	// Publish stores every snapshot under one new version and moves all
	// current pointers to it in a single atomic step. Readers see either the
	// previous set of snapshots or the new one, never a mix. The assigned
	// version is returned and written into each snapshot.
	Publish(ctx context.Context, snapshots []*domain.RankingSnapshot) (int64, error)

	// Current returns the snapshot the current pointer refers to, or ErrSnapshotNotFound.
	Current(ctx context.Context, variant domain.RankingVariant) (*domain.RankingSnapshot, error)

	// GetVersion returns a specific published snapshot, or ErrSnapshotNotFound.
	GetVersion(ctx context.Context, variant domain.RankingVariant, version int64) (*domain.RankingSnapshot, error)
}
