package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

// PostgresDailyStatStore implements store.DailyStatStore on the daily_stats table.
type PostgresDailyStatStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDailyStatStore creates a daily stat store. If logger is nil, a default logger is used.
func NewPostgresDailyStatStore(db store.DBTX, logger *slog.Logger) *PostgresDailyStatStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDailyStatStore{
		db:     db,
		logger: logger.With(slog.String("component", "daily_stat_store")),
	}
}

var _ store.DailyStatStore = (*PostgresDailyStatStore)(nil)

const statColumns = `user_id, stat_date, questions_answered, correct_answers, points_earned, accuracy, average_quality`

// Put implements store.DailyStatStore. The row is overwritten wholesale.
func (s *PostgresDailyStatStore) Put(ctx context.Context, stat *domain.DailyStat) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO daily_stats (`+statColumns+`)
		VALUES (:user_id, :stat_date, :questions_answered, :correct_answers, :points_earned, :accuracy, :average_quality)
		ON CONFLICT (user_id, stat_date) DO UPDATE SET
			questions_answered = EXCLUDED.questions_answered,
			correct_answers = EXCLUDED.correct_answers,
			points_earned = EXCLUDED.points_earned,
			accuracy = EXCLUDED.accuracy,
			average_quality = EXCLUDED.average_quality`,
		stat)
	if err != nil {
		s.logger.Error("failed to put daily stat",
			slog.String("user_id", stat.UserID),
			slog.String("date", stat.Date),
			slog.String("error", err.Error()))
		return store.NewStoreError("daily_stat", "put", "upsert failed", MapError(err))
	}
	return nil
}

// Get implements store.DailyStatStore.
func (s *PostgresDailyStatStore) Get(ctx context.Context, userID, date string) (*domain.DailyStat, error) {
	var stat domain.DailyStat
	err := s.db.GetContext(ctx, &stat,
		`SELECT `+statColumns+` FROM daily_stats WHERE user_id = $1 AND stat_date = $2`,
		userID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDailyStatNotFound
		}
		return nil, store.NewStoreError("daily_stat", "get", "query failed", MapError(err))
	}
	return &stat, nil
}

// ListByUser implements store.DailyStatStore.
func (s *PostgresDailyStatStore) ListByUser(ctx context.Context, userID, from, to string) ([]*domain.DailyStat, error) {
	var stats []*domain.DailyStat
	err := s.db.SelectContext(ctx, &stats,
		`SELECT `+statColumns+` FROM daily_stats
		WHERE user_id = $1 AND stat_date >= $2 AND stat_date <= $3
		ORDER BY stat_date`,
		userID, from, to)
	if err != nil {
		return nil, store.NewStoreError("daily_stat", "list_by_user", "query failed", MapError(err))
	}
	return stats, nil
}
