package store

import (
	"context"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// ProfileSettings are the user-editable profile fields. Nil fields are left unchanged.
type ProfileSettings struct {
	DisplayName       *string
	ShowOnLeaderboard *bool
}

// ProfileStore owns the cumulative user profiles and their per-day fold markers.
//
// FoldDay and ResetWeekly mutate the same counters; implementations must
// serialize them per user so that neither observes the other half-applied.
type ProfileStore interface {
	// FoldDay applies stat to the user's profile via domain.FoldDailyStat and
	// records the new fold marker, atomically. Missing profiles are created.
	FoldDay(
		ctx context.Context,
		stat *domain.DailyStat,
		weekStart time.Time,
		loc *time.Location,
		now time.Time,
	) (*domain.UserProfile, error)

	// ResetWeekly zeroes WeeklyPoints and moves WeekStart to cutover for every
	// profile whose WeekStart is before cutover. It returns the number of
	// profiles reset; a second call with the same cutover resets none.
	ResetWeekly(ctx context.Context, cutover, now time.Time) (int, error)

	// Get returns the profile or ErrProfileNotFound.
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)

	// List returns every profile ordered by user ID.
	List(ctx context.Context) ([]*domain.UserProfile, error)

	// UpdateSettings changes user-editable fields, creating the profile if needed.
	UpdateSettings(
		ctx context.Context,
		userID string,
		settings ProfileSettings,
		weekStart, now time.Time,
	) (*domain.UserProfile, error)
}
