package memory

import (
	"context"
	"sync"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

// QuestionCatalog is an in-memory store.QuestionCatalog preserving insertion order.
type QuestionCatalog struct {
	mu        sync.RWMutex
	order     []string
	questions map[string]domain.Question
}

// NewQuestionCatalog creates a catalog holding questions.
func NewQuestionCatalog(questions ...domain.Question) *QuestionCatalog {
	c := &QuestionCatalog{questions: make(map[string]domain.Question)}
	c.upsert(questions)
	return c
}

var _ store.QuestionCatalog = (*QuestionCatalog)(nil)

// ListQuestions implements store.QuestionCatalog.
func (c *QuestionCatalog) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Question, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.questions[id])
	}
	return out, nil
}

// UpsertQuestions implements store.QuestionCatalog.
func (c *QuestionCatalog) UpsertQuestions(ctx context.Context, questions []domain.Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.upsert(questions)
	return nil
}

func (c *QuestionCatalog) upsert(questions []domain.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, q := range questions {
		if _, ok := c.questions[q.ID]; !ok {
			c.order = append(c.order, q.ID)
		}
		c.questions[q.ID] = q
	}
}
