package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

type cardKey struct {
	userID     string
	questionID string
}

// CardStore is an in-memory store.ReviewCardStore.
type CardStore struct {
	mu    sync.RWMutex
	cards map[cardKey]*domain.ReviewCard
}

// NewCardStore creates an empty CardStore.
func NewCardStore() *CardStore {
	return &CardStore{cards: make(map[cardKey]*domain.ReviewCard)}
}

var _ store.ReviewCardStore = (*CardStore)(nil)

// Get implements store.ReviewCardStore.
func (s *CardStore) Get(ctx context.Context, userID, questionID string) (*domain.ReviewCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.cards[cardKey{userID, questionID}]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return card.Clone(), nil
}

// CompareAndSwap implements store.ReviewCardStore.
func (s *CardStore) CompareAndSwap(
	ctx context.Context,
	userID, questionID string,
	expectedVersion int64,
	card *domain.ReviewCard,
) (*domain.ReviewCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if card.UserID != userID || card.QuestionID != questionID {
		return nil, store.NewStoreError("review_card", "compare_and_swap", "key mismatch", store.ErrInvalidEntity)
	}
	if err := card.Validate(); err != nil {
		return nil, store.NewStoreError("review_card", "compare_and_swap", "invalid card", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cardKey{userID, questionID}
	var current int64
	if existing, ok := s.cards[key]; ok {
		current = existing.Version
	}
	if current != expectedVersion {
		return nil, store.ErrConflict
	}

	stored := card.Clone()
	stored.Version = current + 1
	s.cards[key] = stored

	return stored.Clone(), nil
}

// ListByUser implements store.ReviewCardStore.
func (s *CardStore) ListByUser(ctx context.Context, userID string) ([]*domain.ReviewCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var cards []*domain.ReviewCard
	for key, card := range s.cards {
		if key.userID == userID {
			cards = append(cards, card.Clone())
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].QuestionID < cards[j].QuestionID })
	return cards, nil
}
