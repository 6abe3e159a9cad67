package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"github.com/lib/pq"
)

// PostgresActivityLog implements store.ActivityLog on the activity_events table.
type PostgresActivityLog struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityLog creates an activity log. If logger is nil, a default logger is used.
func NewPostgresActivityLog(db store.DBTX, logger *slog.Logger) *PostgresActivityLog {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityLog{
		db:     db,
		logger: logger.With(slog.String("component", "activity_log")),
	}
}

var _ store.ActivityLog = (*PostgresActivityLog)(nil)

type eventRow struct {
	domain.ActivityEvent
	EventDate string `db:"event_date"`
}

const eventColumns = `user_id, event_date, event_id, question_id, quality, is_correct, is_new_card, occurred_at`

// Append implements store.ActivityLog. Replayed events are ignored.
func (l *PostgresActivityLog) Append(ctx context.Context, date string, event *domain.ActivityEvent) error {
	if err := event.Validate(); err != nil {
		return store.NewStoreError("activity_event", "append", "invalid event", err)
	}

	row := eventRow{ActivityEvent: *event, EventDate: date}
	_, err := l.db.NamedExecContext(ctx,
		`INSERT INTO activity_events (`+eventColumns+`)
		VALUES (:user_id, :event_date, :event_id, :question_id, :quality, :is_correct, :is_new_card, :occurred_at)
		ON CONFLICT (user_id, event_date, event_id) DO NOTHING`,
		row)
	if err != nil {
		l.logger.Error("failed to append activity event",
			slog.String("user_id", event.UserID),
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("activity_event", "append", "insert failed", MapError(err))
	}
	return nil
}

// ListWindow implements store.ActivityLog.
func (l *PostgresActivityLog) ListWindow(ctx context.Context, start, end time.Time) ([]*domain.ActivityEvent, error) {
	var rows []eventRow
	err := l.db.SelectContext(ctx, &rows,
		`SELECT `+eventColumns+` FROM activity_events
		WHERE occurred_at >= $1 AND occurred_at < $2
		ORDER BY occurred_at, event_id`,
		start.UTC(), end.UTC())
	if err != nil {
		l.logger.Error("failed to list activity window",
			slog.Time("start", start),
			slog.Time("end", end),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("activity_event", "list_window", "query failed", MapError(err))
	}
	return toEvents(rows), nil
}

// ListPartitions implements store.ActivityLog.
func (l *PostgresActivityLog) ListPartitions(
	ctx context.Context,
	userID string,
	dates []string,
) (map[string][]*domain.ActivityEvent, error) {
	var rows []eventRow
	err := l.db.SelectContext(ctx, &rows,
		`SELECT `+eventColumns+` FROM activity_events
		WHERE user_id = $1 AND event_date = ANY($2)
		ORDER BY occurred_at, event_id`,
		userID, pq.Array(dates))
	if err != nil {
		l.logger.Error("failed to list activity partitions",
			slog.String("user_id", userID),
			slog.Int("dates", len(dates)),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("activity_event", "list_partitions", "query failed", MapError(err))
	}

	out := make(map[string][]*domain.ActivityEvent, len(dates))
	for _, d := range dates {
		out[d] = []*domain.ActivityEvent{}
	}
	for i := range rows {
		e := rows[i].ActivityEvent
		out[rows[i].EventDate] = append(out[rows[i].EventDate], &e)
	}
	return out, nil
}

// ListRecent implements store.ActivityLog.
func (l *PostgresActivityLog) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.ActivityEvent, error) {
	var rows []eventRow
	err := l.db.SelectContext(ctx, &rows,
		`SELECT `+eventColumns+` FROM activity_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC, event_id DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		l.logger.Error("failed to list recent activity",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("activity_event", "list_recent", "query failed", MapError(err))
	}
	return toEvents(rows), nil
}

func toEvents(rows []eventRow) []*domain.ActivityEvent {
	events := make([]*domain.ActivityEvent, 0, len(rows))
	for i := range rows {
		e := rows[i].ActivityEvent
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, &e)
	}
	return events
}
