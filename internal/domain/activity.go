package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// activityNamespace scopes the name-based UUIDs used as activity event ids.
var activityNamespace = uuid.MustParse("6f1d2c8e-4b7a-5e39-9a41-0c3d8e5f7b21")

// ActivityEvent is the immutable record of one submitted answer.
// Events are partitioned by (UserID, calendar date) and keyed within a
// partition by ID, which is derived from the answer's identity so that
// retried submissions collapse into one event.
type ActivityEvent struct {
	ID         uuid.UUID `json:"id" db:"event_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	QuestionID string    `json:"question_id" db:"question_id"`
	Quality    int       `json:"quality" db:"quality"`
	IsCorrect  bool      `json:"is_correct" db:"is_correct"`
	IsNewCard  bool      `json:"is_new_card" db:"is_new_card"`
	Timestamp  time.Time `json:"timestamp" db:"occurred_at"`
}

// ActivityEventID returns the idempotency key of an answer.
func ActivityEventID(userID, questionID string, ts time.Time) uuid.UUID {
	name := strings.Join([]string{userID, questionID, ts.UTC().Format(time.RFC3339Nano)}, "|")
	return uuid.NewSHA1(activityNamespace, []byte(name))
}

// NewActivityEvent builds an event with its idempotency key filled in.
func NewActivityEvent(
	userID, questionID string,
	quality int,
	isCorrect, isNewCard bool,
	ts time.Time,
) (*ActivityEvent, error) {
	e := &ActivityEvent{
		ID:         ActivityEventID(userID, questionID, ts),
		UserID:     userID,
		QuestionID: questionID,
		Quality:    quality,
		IsCorrect:  isCorrect,
		IsNewCard:  isNewCard,
		Timestamp:  ts.UTC(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the event fields that aggregation relies on.
func (e *ActivityEvent) Validate() error {
	if strings.TrimSpace(e.UserID) == "" || strings.TrimSpace(e.QuestionID) == "" {
		return ErrInvalidID
	}
	if e.Quality < 0 || e.Quality > 5 {
		return ErrInvalidQuality
	}
	return nil
}

// Date returns the partition date of the event in loc.
func (e *ActivityEvent) Date(loc *time.Location) string {
	return CalendarDate(e.Timestamp, loc)
}
