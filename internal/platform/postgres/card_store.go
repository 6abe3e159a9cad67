package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

// PostgresCardStore implements store.ReviewCardStore on the review_cards table.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a card store. If logger is nil, a default logger is used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

var _ store.ReviewCardStore = (*PostgresCardStore)(nil)

type cardRow struct {
	UserID          string       `db:"user_id"`
	QuestionID      string       `db:"question_id"`
	RepetitionCount int          `db:"repetition_count"`
	EasinessFactor  float64      `db:"easiness_factor"`
	IntervalDays    int          `db:"interval_days"`
	DueDate         sql.NullTime `db:"due_date"`
	MasteryLevel    int          `db:"mastery_level"`
	LastStudied     sql.NullTime `db:"last_studied"`
	History         []byte       `db:"history"`
	Version         int64        `db:"version"`
}

const cardColumns = `user_id, question_id, repetition_count, easiness_factor, interval_days,
	due_date, mastery_level, last_studied, history, version`

func toCardRow(c *domain.ReviewCard) (*cardRow, error) {
	history := c.History
	if history == nil {
		history = []domain.ReviewHistoryEntry{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode review history: %w", err)
	}
	return &cardRow{
		UserID:          c.UserID,
		QuestionID:      c.QuestionID,
		RepetitionCount: c.RepetitionCount,
		EasinessFactor:  c.EasinessFactor,
		IntervalDays:    c.IntervalDays,
		DueDate:         nullTime(c.DueDate),
		MasteryLevel:    int(c.MasteryLevel),
		LastStudied:     nullTime(c.LastStudied),
		History:         raw,
		Version:         c.Version,
	}, nil
}

func (r *cardRow) toDomain() (*domain.ReviewCard, error) {
	card := &domain.ReviewCard{
		UserID:          r.UserID,
		QuestionID:      r.QuestionID,
		RepetitionCount: r.RepetitionCount,
		EasinessFactor:  r.EasinessFactor,
		IntervalDays:    r.IntervalDays,
		DueDate:         timePtr(r.DueDate),
		MasteryLevel:    domain.MasteryLevel(r.MasteryLevel),
		LastStudied:     timePtr(r.LastStudied),
		Version:         r.Version,
	}
	if err := json.Unmarshal(r.History, &card.History); err != nil {
		return nil, fmt.Errorf("failed to decode review history: %w", err)
	}
	if card.History == nil {
		card.History = []domain.ReviewHistoryEntry{}
	}
	return card, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// Get implements store.ReviewCardStore.
func (s *PostgresCardStore) Get(ctx context.Context, userID, questionID string) (*domain.ReviewCard, error) {
	var row cardRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+cardColumns+` FROM review_cards WHERE user_id = $1 AND question_id = $2`,
		userID, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		s.logger.Error("failed to get review card",
			slog.String("user_id", userID),
			slog.String("question_id", questionID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("review_card", "get", "query failed", MapError(err))
	}
	return row.toDomain()
}

// CompareAndSwap implements store.ReviewCardStore. An expected version of
// zero inserts the card and fails if any row exists; otherwise the row is
// replaced only while its version still matches.
func (s *PostgresCardStore) CompareAndSwap(
	ctx context.Context,
	userID, questionID string,
	expectedVersion int64,
	card *domain.ReviewCard,
) (*domain.ReviewCard, error) {
	if card.UserID != userID || card.QuestionID != questionID {
		return nil, store.NewStoreError("review_card", "compare_and_swap", "key mismatch", store.ErrInvalidEntity)
	}
	if err := card.Validate(); err != nil {
		return nil, store.NewStoreError("review_card", "compare_and_swap", "invalid card", err)
	}

	row, err := toCardRow(card)
	if err != nil {
		return nil, store.NewStoreError("review_card", "compare_and_swap", "encode failed", err)
	}

	var query string
	args := []any{
		row.UserID, row.QuestionID, row.RepetitionCount, row.EasinessFactor, row.IntervalDays,
		row.DueDate, row.MasteryLevel, row.LastStudied, row.History,
	}
	if expectedVersion == 0 {
		query = `INSERT INTO review_cards (` + cardColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
			ON CONFLICT (user_id, question_id) DO NOTHING
			RETURNING ` + cardColumns
	} else {
		query = `UPDATE review_cards SET
				repetition_count = $3, easiness_factor = $4, interval_days = $5,
				due_date = $6, mastery_level = $7, last_studied = $8, history = $9,
				version = version + 1
			WHERE user_id = $1 AND question_id = $2 AND version = $10
			RETURNING ` + cardColumns
		args = append(args, expectedVersion)
	}

	var stored cardRow
	if err := s.db.GetContext(ctx, &stored, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("review card version conflict",
				slog.String("user_id", userID),
				slog.String("question_id", questionID),
				slog.Int64("expected_version", expectedVersion))
			return nil, store.ErrConflict
		}
		s.logger.Error("failed to write review card",
			slog.String("user_id", userID),
			slog.String("question_id", questionID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("review_card", "compare_and_swap", "write failed", MapError(err))
	}

	return stored.toDomain()
}

// ListByUser implements store.ReviewCardStore.
func (s *PostgresCardStore) ListByUser(ctx context.Context, userID string) ([]*domain.ReviewCard, error) {
	var rows []cardRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+cardColumns+` FROM review_cards WHERE user_id = $1 ORDER BY question_id`,
		userID)
	if err != nil {
		s.logger.Error("failed to list review cards",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("review_card", "list_by_user", "query failed", MapError(err))
	}

	cards := make([]*domain.ReviewCard, 0, len(rows))
	for i := range rows {
		card, err := rows[i].toDomain()
		if err != nil {
			return nil, store.NewStoreError("review_card", "list_by_user", "decode failed", err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}
