package postgres

import (
	"context"
	"log/slog"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"github.com/jmoiron/sqlx"
)

// PostgresQuestionCatalog implements store.QuestionCatalog on the questions table.
// Catalog order is insertion order.
type PostgresQuestionCatalog struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresQuestionCatalog creates a question catalog.
func NewPostgresQuestionCatalog(db *sqlx.DB, logger *slog.Logger) *PostgresQuestionCatalog {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresQuestionCatalog{
		db:     db,
		logger: logger.With(slog.String("component", "question_catalog")),
	}
}

var _ store.QuestionCatalog = (*PostgresQuestionCatalog)(nil)

// ListQuestions implements store.QuestionCatalog.
func (c *PostgresQuestionCatalog) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	var questions []domain.Question
	if err := c.db.SelectContext(ctx, &questions,
		`SELECT id, subject FROM questions ORDER BY position`); err != nil {
		return nil, store.NewStoreError("question", "list", "query failed", MapError(err))
	}
	return questions, nil
}

// UpsertQuestions implements store.QuestionCatalog.
func (c *PostgresQuestionCatalog) UpsertQuestions(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	err := store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx *sqlx.Tx) error {
		for _, q := range questions {
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO questions (id, subject) VALUES (:id, :subject)
				ON CONFLICT (id) DO UPDATE SET subject = EXCLUDED.subject`, q); err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Error("failed to upsert questions",
			slog.Int("count", len(questions)),
			slog.String("error", err.Error()))
		return store.NewStoreError("question", "upsert", "transaction failed", err)
	}
	return nil
}
