package store

import (
	"context"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// ActivityLog is the append-only answer log, partitioned by (userID, date)
// and keyed within a partition by event ID.
type ActivityLog interface {
	// Append writes event into the partition for date. Appending an event
	// whose key already exists is a successful no-op.
	Append(ctx context.Context, date string, event *domain.ActivityEvent) error

	// ListWindow returns events with start <= Timestamp < end.
	ListWindow(ctx context.Context, start, end time.Time) ([]*domain.ActivityEvent, error)

	// ListPartitions returns the complete contents of the user's partitions
	// for the given dates, keyed by date.
	ListPartitions(ctx context.Context, userID string, dates []string) (map[string][]*domain.ActivityEvent, error)

	// ListRecent returns up to limit of the user's latest events, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]*domain.ActivityEvent, error)
}
