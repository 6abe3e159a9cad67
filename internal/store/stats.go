package store

import (
	"context"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// DailyStatStore keeps one derived DailyStat per (userID, date).
type DailyStatStore interface {
	// Put overwrites the stat for (stat.UserID, stat.Date) wholesale.
	Put(ctx context.Context, stat *domain.DailyStat) error

	// Get returns the stat or ErrDailyStatNotFound.
	Get(ctx context.Context, userID, date string) (*domain.DailyStat, error)

	// ListByUser returns the user's stats with from <= date <= to, oldest first.
	ListByUser(ctx context.Context, userID, from, to string) ([]*domain.DailyStat, error)
}
