package store

import (
	"context"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// QuestionCatalog lists the questions that can be introduced as new cards.
type QuestionCatalog interface {
	// ListQuestions returns the catalog in its canonical order.
	ListQuestions(ctx context.Context) ([]domain.Question, error)

	// UpsertQuestions inserts or updates catalog entries.
	UpsertQuestions(ctx context.Context, questions []domain.Question) error
}
