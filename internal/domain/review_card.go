package domain

import (
	"errors"
	"strings"
	"time"
)

// Scheduler defaults for a card that has never been studied.
const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
)

// MasteryLevel is a coarse bucket summarizing a card's learning progress.
type MasteryLevel int

// Mastery levels. MasteryExpert is reached once the top easiness and
// consecutive-success thresholds are both met.
const (
	MasteryNew MasteryLevel = iota
	MasteryLearning
	MasteryFamiliar
	MasteryProficient
	MasteryAdvanced
	MasteryExpert
)

// String returns the label used in API responses and logs.
func (m MasteryLevel) String() string {
	switch m {
	case MasteryNew:
		return "new"
	case MasteryLearning:
		return "learning"
	case MasteryFamiliar:
		return "familiar"
	case MasteryProficient:
		return "proficient"
	case MasteryAdvanced:
		return "advanced"
	case MasteryExpert:
		return "expert"
	default:
		return "unknown"
	}
}

// Validation errors for ReviewCard.
var (
	ErrEmptyCardUserID     = errors.New("review card user ID cannot be empty")
	ErrEmptyCardQuestionID = errors.New("review card question ID cannot be empty")
	ErrNegativeRepetitions = errors.New("repetition count cannot be negative")
	ErrNegativeInterval    = errors.New("interval cannot be negative")
	ErrEasinessBelowFloor  = errors.New("easiness factor below floor")
)

// ReviewHistoryEntry records one applied review. Entries are write-once.
type ReviewHistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Quality        int       `json:"quality"`
	IntervalBefore int       `json:"interval_before"`
	IntervalAfter  int       `json:"interval_after"`
	EFBefore       float64   `json:"ef_before"`
	EFAfter        float64   `json:"ef_after"`
}

// ReviewCard is one user's SM-2 state for one question.
// Cards are keyed by (UserID, QuestionID) and owned by that user alone.
type ReviewCard struct {
	UserID          string               `json:"user_id"`
	QuestionID      string               `json:"question_id"`
	RepetitionCount int                  `json:"repetition_count"`
	EasinessFactor  float64              `json:"easiness_factor"`
	IntervalDays    int                  `json:"interval_days"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	MasteryLevel    MasteryLevel         `json:"mastery_level"`
	LastStudied     *time.Time           `json:"last_studied,omitempty"`
	History         []ReviewHistoryEntry `json:"history"`

	// Version is the optimistic concurrency token assigned by the store.
	// Zero means the card has never been persisted.
	Version int64 `json:"version"`
}

// NewReviewCard returns the implicit default state of a card that has never been studied.
func NewReviewCard(userID, questionID string) (*ReviewCard, error) {
	card := &ReviewCard{
		UserID:         userID,
		QuestionID:     questionID,
		EasinessFactor: DefaultEasinessFactor,
		MasteryLevel:   MasteryNew,
		History:        []ReviewHistoryEntry{},
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the card invariants that must hold in every stored state.
func (c *ReviewCard) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyCardUserID
	}
	if strings.TrimSpace(c.QuestionID) == "" {
		return ErrEmptyCardQuestionID
	}
	if c.RepetitionCount < 0 {
		return ErrNegativeRepetitions
	}
	if c.IntervalDays < 0 {
		return ErrNegativeInterval
	}
	if c.EasinessFactor < MinEasinessFactor {
		return ErrEasinessBelowFloor
	}
	return nil
}

// IsNew reports whether the card has never been reviewed.
func (c *ReviewCard) IsNew() bool {
	return len(c.History) == 0
}

// IsDue reports whether the card belongs in the review bucket at now.
// Cards without a due date are never due.
func (c *ReviewCard) IsDue(now time.Time) bool {
	return c.DueDate != nil && !c.DueDate.After(now)
}

// Clone returns a deep copy of the card.
func (c *ReviewCard) Clone() *ReviewCard {
	clone := *c
	if c.DueDate != nil {
		due := *c.DueDate
		clone.DueDate = &due
	}
	if c.LastStudied != nil {
		last := *c.LastStudied
		clone.LastStudied = &last
	}
	clone.History = make([]ReviewHistoryEntry, len(c.History))
	copy(clone.History, c.History)
	return &clone
}
