package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"github.com/google/uuid"
)

type partitionKey struct {
	userID string
	date   string
}

// ActivityLog is an in-memory store.ActivityLog.
type ActivityLog struct {
	mu         sync.RWMutex
	partitions map[partitionKey]map[uuid.UUID]domain.ActivityEvent
}

// NewActivityLog creates an empty ActivityLog.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{partitions: make(map[partitionKey]map[uuid.UUID]domain.ActivityEvent)}
}

var _ store.ActivityLog = (*ActivityLog)(nil)

// Append implements store.ActivityLog.
func (l *ActivityLog) Append(ctx context.Context, date string, event *domain.ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return store.NewStoreError("activity_event", "append", "invalid event", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := partitionKey{event.UserID, date}
	part, ok := l.partitions[key]
	if !ok {
		part = make(map[uuid.UUID]domain.ActivityEvent)
		l.partitions[key] = part
	}
	if _, exists := part[event.ID]; !exists {
		part[event.ID] = *event
	}
	return nil
}

// ListWindow implements store.ActivityLog.
func (l *ActivityLog) ListWindow(ctx context.Context, start, end time.Time) ([]*domain.ActivityEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var events []*domain.ActivityEvent
	for _, part := range l.partitions {
		for _, e := range part {
			if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
				ev := e
				events = append(events, &ev)
			}
		}
	}
	sortEvents(events)
	return events, nil
}

// ListPartitions implements store.ActivityLog.
func (l *ActivityLog) ListPartitions(
	ctx context.Context,
	userID string,
	dates []string,
) (map[string][]*domain.ActivityEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string][]*domain.ActivityEvent, len(dates))
	for _, date := range dates {
		part := l.partitions[partitionKey{userID, date}]
		events := make([]*domain.ActivityEvent, 0, len(part))
		for _, e := range part {
			ev := e
			events = append(events, &ev)
		}
		sortEvents(events)
		out[date] = events
	}
	return out, nil
}

// ListRecent implements store.ActivityLog.
func (l *ActivityLog) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.ActivityEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	var events []*domain.ActivityEvent
	for key, part := range l.partitions {
		if key.userID != userID {
			continue
		}
		for _, e := range part {
			ev := e
			events = append(events, &ev)
		}
	}
	l.mu.RUnlock()

	sortEvents(events)
	// newest first
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	if limit >= 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func sortEvents(events []*domain.ActivityEvent) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].ID.String() < events[j].ID.String()
	})
}
