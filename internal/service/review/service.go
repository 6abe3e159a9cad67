// Package review implements the per-answer path: normalizing a submitted
// rating, applying it to the user's card with compare-and-swap, and recording
// the answer in the activity log. It also assembles study slates.
package review

import (
	"context"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// SubmitAnswerInput is one rated answer as received from a client.
// Quality and ClientTimestamp are raw values and are normalized before use.
type SubmitAnswerInput struct {
	UserID     string
	QuestionID string
	Quality    any
	IsCorrect  bool
	IsNewCard  bool

	// ClientTimestamp is when the user answered. It is part of the event's
	// idempotency key, so retries must resend the same value. Nil means the
	// server clock.
	ClientTimestamp any
}

// Service is the review path consumed by transports.
type Service interface {
	// SubmitAnswer applies a rating to the user's card and appends the answer
	// to the activity log. A missing card starts from the default state.
	//
	// Returns:
	//   - normalize.ErrInvalidQuality / normalize.ErrUnrecognizedTimestampFormat for bad input
	//   - a retryable *ServiceError wrapping store.ErrConflict when concurrent
	//     submissions keep winning the compare-and-swap
	SubmitAnswer(ctx context.Context, in SubmitAnswerInput) (*domain.ReviewCard, error)

	// GetDueSlate returns up to reviewLimit due question ids followed by up to
	// newLimit new question ids.
	GetDueSlate(ctx context.Context, userID string, now time.Time, reviewLimit, newLimit int) ([]string, error)
}

// Config tunes the review service.
type Config struct {
	// MaxCASRetries bounds compare-and-swap attempts per submission.
	MaxCASRetries int

	// RecentEvents is how many of the user's latest answers feed the
	// recent-subject penalty of the new-card bucket.
	RecentEvents int

	// RecentSubjectPenalty overrides the selector's default when positive.
	RecentSubjectPenalty float64

	// Location decides the calendar date of each activity event.
	Location *time.Location

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Defaults.
const (
	DefaultMaxCASRetries = 3
	DefaultRecentEvents  = 20
)
