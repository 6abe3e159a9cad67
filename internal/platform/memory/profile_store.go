package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

// ProfileStore is an in-memory store.ProfileStore. A single lock covers
// profiles and fold markers, which serializes folds against weekly resets.
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[string]domain.UserProfile
	folds    map[partitionKey]domain.DayFold
}

// NewProfileStore creates an empty ProfileStore.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.UserProfile),
		folds:    make(map[partitionKey]domain.DayFold),
	}
}

var _ store.ProfileStore = (*ProfileStore)(nil)

// FoldDay implements store.ProfileStore.
func (s *ProfileStore) FoldDay(
	ctx context.Context,
	stat *domain.DailyStat,
	weekStart time.Time,
	loc *time.Location,
	now time.Time,
) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[stat.UserID]
	if !ok {
		profile = *domain.NewUserProfile(stat.UserID, weekStart, now)
	}

	key := partitionKey{stat.UserID, stat.Date}
	var prev *domain.DayFold
	if marker, ok := s.folds[key]; ok {
		prev = &marker
	}

	marker, err := domain.FoldDailyStat(&profile, prev, *stat, weekStart, loc, now)
	if err != nil {
		return nil, store.NewStoreError("user_profile", "fold_day", "invalid daily stat", err)
	}

	s.profiles[stat.UserID] = profile
	s.folds[key] = marker

	out := profile
	return &out, nil
}

// ResetWeekly implements store.ProfileStore.
func (s *ProfileStore) ResetWeekly(ctx context.Context, cutover, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reset := 0
	for id, p := range s.profiles {
		if !p.WeekStart.Before(cutover) {
			continue
		}
		p.WeeklyPoints = 0
		p.WeekStart = cutover
		p.UpdatedAt = now
		s.profiles[id] = p
		reset++
	}
	return reset, nil
}

// Get implements store.ProfileStore.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return &p, nil
}

// List implements store.ProfileStore.
func (s *ProfileStore) List(ctx context.Context) ([]*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	out := make([]*domain.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profile := p
		out = append(out, &profile)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// UpdateSettings implements store.ProfileStore.
func (s *ProfileStore) UpdateSettings(
	ctx context.Context,
	userID string,
	settings store.ProfileSettings,
	weekStart, now time.Time,
) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		p = *domain.NewUserProfile(userID, weekStart, now)
	}
	if settings.DisplayName != nil {
		p.DisplayName = *settings.DisplayName
	}
	if settings.ShowOnLeaderboard != nil {
		p.ShowOnLeaderboard = *settings.ShowOnLeaderboard
	}
	p.UpdatedAt = now
	s.profiles[userID] = p

	out := p
	return &out, nil
}
