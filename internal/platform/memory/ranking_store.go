package memory

import (
	"context"
	"sync"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

type snapshotKey struct {
	variant domain.RankingVariant
	version int64
}

// RankingStore is an in-memory store.RankingStore. Publishing swaps all
// current pointers under one lock.
type RankingStore struct {
	mu          sync.RWMutex
	lastVersion int64
	snapshots   map[snapshotKey]*domain.RankingSnapshot
	current     map[domain.RankingVariant]int64
}

// NewRankingStore creates an empty RankingStore.
func NewRankingStore() *RankingStore {
	return &RankingStore{
		snapshots: make(map[snapshotKey]*domain.RankingSnapshot),
		current:   make(map[domain.RankingVariant]int64),
	}
}

var _ store.RankingStore = (*RankingStore)(nil)

// Publish implements store.RankingStore.
func (s *RankingStore) Publish(ctx context.Context, snapshots []*domain.RankingSnapshot) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(snapshots) == 0 {
		return 0, store.NewStoreError("ranking_snapshot", "publish", "empty batch", store.ErrInvalidEntity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.lastVersion + 1
	for _, snap := range snapshots {
		snap.Version = version
		s.snapshots[snapshotKey{snap.Variant, version}] = cloneSnapshot(snap)
	}
	for _, snap := range snapshots {
		s.current[snap.Variant] = version
	}
	s.lastVersion = version

	return version, nil
}

// Current implements store.RankingStore.
func (s *RankingStore) Current(ctx context.Context, variant domain.RankingVariant) (*domain.RankingSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.current[variant]
	if !ok {
		return nil, store.ErrSnapshotNotFound
	}
	return cloneSnapshot(s.snapshots[snapshotKey{variant, version}]), nil
}

// GetVersion implements store.RankingStore.
func (s *RankingStore) GetVersion(
	ctx context.Context,
	variant domain.RankingVariant,
	version int64,
) (*domain.RankingSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[snapshotKey{variant, version}]
	if !ok {
		return nil, store.ErrSnapshotNotFound
	}
	return cloneSnapshot(snap), nil
}

func cloneSnapshot(s *domain.RankingSnapshot) *domain.RankingSnapshot {
	out := *s
	out.Entries = append([]domain.RankingEntry(nil), s.Entries...)
	return &out
}
