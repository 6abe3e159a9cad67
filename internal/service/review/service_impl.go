package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/domain/srs"
	"github.com/eddy80524/dental-quiz-app/internal/normalize"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/redact"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	cards      store.ReviewCardStore
	activity   store.ActivityLog
	catalog    store.QuestionCatalog
	srs        srs.Service
	normalizer *normalize.Normalizer
	cfg        Config
	logger     *slog.Logger
}

// NewService creates the review service. catalog may be nil, in which case
// only stored never-reviewed cards are offered as new cards.
func NewService(
	cards store.ReviewCardStore,
	activity store.ActivityLog,
	catalog store.QuestionCatalog,
	srsService srs.Service,
	normalizer *normalize.Normalizer,
	cfg Config,
	logger *slog.Logger,
) Service {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if activity == nil {
		panic("activity cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if normalizer == nil {
		normalizer = normalize.NewDefault()
	}
	if cfg.MaxCASRetries <= 0 {
		cfg.MaxCASRetries = DefaultMaxCASRetries
	}
	if cfg.RecentEvents <= 0 {
		cfg.RecentEvents = DefaultRecentEvents
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		cards:      cards,
		activity:   activity,
		catalog:    catalog,
		srs:        srsService,
		normalizer: normalizer,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "review_service")),
	}
}

// SubmitAnswer implements Service.SubmitAnswer.
func (s *serviceImpl) SubmitAnswer(ctx context.Context, in SubmitAnswerInput) (*domain.ReviewCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.QuestionID) == "" {
		return nil, ErrInvalidInput
	}

	quality, err := s.normalizer.Quality(in.Quality)
	if err != nil {
		log.Warn("rejected answer with invalid quality",
			slog.String("user_id", in.UserID),
			slog.String("question_id", in.QuestionID),
			slog.String("error", err.Error()))
		return nil, err
	}

	now := s.cfg.Clock().UTC()
	answeredAt := now
	if in.ClientTimestamp != nil {
		answeredAt, err = s.normalizer.Timestamp(in.ClientTimestamp)
		if err != nil {
			log.Warn("rejected answer with invalid timestamp",
				slog.String("user_id", in.UserID),
				slog.String("question_id", in.QuestionID),
				slog.String("error", err.Error()))
			return nil, err
		}
		// future-dated clients must not push the due date forward
		if answeredAt.After(now) {
			answeredAt = now
		}
	}

	event, err := domain.NewActivityEvent(in.UserID, in.QuestionID, quality, in.IsCorrect, in.IsNewCard, answeredAt)
	if err != nil {
		return nil, err
	}

	card, err := s.applyWithRetry(ctx, log, in.UserID, in.QuestionID, quality, answeredAt)
	if err != nil {
		return nil, err
	}

	if err := s.activity.Append(ctx, event.Date(s.cfg.Location), event); err != nil {
		log.Error("failed to append activity event",
			slog.String("user_id", in.UserID),
			slog.String("question_id", in.QuestionID),
			slog.String("event_id", event.ID.String()),
			slog.String("error", redact.Error(err)))
		return nil, NewSubmitAnswerError("failed to record activity", err)
	}

	log.Debug("answer submitted",
		slog.String("user_id", in.UserID),
		slog.String("question_id", in.QuestionID),
		slog.Int("quality", quality),
		slog.Int("interval_days", card.IntervalDays),
		slog.Float64("easiness_factor", card.EasinessFactor),
		slog.Int64("version", card.Version))

	return card, nil
}

// applyWithRetry runs the read-modify-write on one card, re-reading on conflict.
// An answer already in the card's history is not applied again.
func (s *serviceImpl) applyWithRetry(
	ctx context.Context,
	log *slog.Logger,
	userID, questionID string,
	quality int,
	answeredAt time.Time,
) (*domain.ReviewCard, error) {
	for attempt := 1; attempt <= s.cfg.MaxCASRetries; attempt++ {
		current, err := s.cards.Get(ctx, userID, questionID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Error("failed to read review card",
					slog.String("user_id", userID),
					slog.String("question_id", questionID),
					slog.String("error", redact.Error(err)))
				return nil, NewSubmitAnswerError("failed to read card", err)
			}
			current, err = s.srs.NewCard(userID, questionID)
			if err != nil {
				return nil, NewSubmitAnswerError("failed to create default card", err)
			}
		}

		if hasReviewAt(current, answeredAt) {
			log.Debug("answer already applied to card",
				slog.String("user_id", userID),
				slog.String("question_id", questionID))
			return current, nil
		}

		next, err := s.srs.ApplyReview(current, quality, answeredAt)
		if err != nil {
			return nil, NewSubmitAnswerError("failed to apply review", err)
		}

		stored, err := s.cards.CompareAndSwap(ctx, userID, questionID, current.Version, next)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			log.Error("failed to write review card",
				slog.String("user_id", userID),
				slog.String("question_id", questionID),
				slog.String("error", redact.Error(err)))
			return nil, NewSubmitAnswerError("failed to write card", err)
		}

		log.Debug("review card conflict, retrying",
			slog.String("user_id", userID),
			slog.String("question_id", questionID),
			slog.Int("attempt", attempt))

		if err := ctx.Err(); err != nil {
			return nil, NewSubmitAnswerError("cancelled while retrying", err)
		}
	}

	log.Warn("review card conflict retries exhausted",
		slog.String("user_id", userID),
		slog.String("question_id", questionID),
		slog.Int("attempts", s.cfg.MaxCASRetries))
	return nil, NewSubmitAnswerError("concurrent update", ErrConflictExhausted)
}

func hasReviewAt(card *domain.ReviewCard, at time.Time) bool {
	for i := len(card.History) - 1; i >= 0; i-- {
		if card.History[i].Timestamp.Equal(at) {
			return true
		}
	}
	return false
}

// GetDueSlate implements Service.GetDueSlate.
func (s *serviceImpl) GetDueSlate(
	ctx context.Context,
	userID string,
	now time.Time,
	reviewLimit, newLimit int,
) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}

	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list review cards",
			slog.String("user_id", userID),
			slog.String("error", redact.Error(err)))
		return nil, NewGetDueSlateError("failed to list cards", err)
	}

	opts := srs.SlateOptions{
		ReviewLimit:          reviewLimit,
		NewLimit:             newLimit,
		RecentSubjectPenalty: s.cfg.RecentSubjectPenalty,
	}

	if newLimit > 0 && s.catalog != nil {
		opts.Catalog, err = s.catalog.ListQuestions(ctx)
		if err != nil {
			return nil, NewGetDueSlateError("failed to list questions", err)
		}

		recent, err := s.activity.ListRecent(ctx, userID, s.cfg.RecentEvents)
		if err != nil {
			return nil, NewGetDueSlateError("failed to list recent activity", err)
		}
		for _, e := range recent {
			opts.RecentQuestionIDs = append(opts.RecentQuestionIDs, e.QuestionID)
		}
	}

	slate := srs.BuildSlate(cards, now, opts)

	log.Debug("built study slate",
		slog.String("user_id", userID),
		slog.Int("cards", len(cards)),
		slog.Int("slate", len(slate)))

	return slate, nil
}
