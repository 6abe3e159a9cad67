package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

// DailyStatStore is an in-memory store.DailyStatStore.
type DailyStatStore struct {
	mu    sync.RWMutex
	stats map[partitionKey]domain.DailyStat
}

// NewDailyStatStore creates an empty DailyStatStore.
func NewDailyStatStore() *DailyStatStore {
	return &DailyStatStore{stats: make(map[partitionKey]domain.DailyStat)}
}

var _ store.DailyStatStore = (*DailyStatStore)(nil)

// Put implements store.DailyStatStore.
func (s *DailyStatStore) Put(ctx context.Context, stat *domain.DailyStat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[partitionKey{stat.UserID, stat.Date}] = *stat
	return nil
}

// Get implements store.DailyStatStore.
func (s *DailyStatStore) Get(ctx context.Context, userID, date string) (*domain.DailyStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stat, ok := s.stats[partitionKey{userID, date}]
	if !ok {
		return nil, store.ErrDailyStatNotFound
	}
	return &stat, nil
}

// ListByUser implements store.DailyStatStore.
func (s *DailyStatStore) ListByUser(ctx context.Context, userID, from, to string) ([]*domain.DailyStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.DailyStat
	for key, stat := range s.stats {
		// date keys sort lexically in calendar order
		if key.userID == userID && key.date >= from && key.date <= to {
			st := stat
			out = append(out, &st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
