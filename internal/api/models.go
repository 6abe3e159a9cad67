package api

import (
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
)

// SubmitAnswerRequest is the body of POST /api/users/{userID}/answers.
// Quality and Timestamp accept every shape the normalizer understands.
type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required,max=128"`
	Quality    any    `json:"quality"`
	IsCorrect  bool   `json:"is_correct"`
	IsNewCard  bool   `json:"is_new_card"`
	Timestamp  any    `json:"timestamp,omitempty"`
}

// ReviewCardResponse is a card's scheduling state after an answer.
type ReviewCardResponse struct {
	QuestionID      string     `json:"question_id"`
	RepetitionCount int        `json:"repetition_count"`
	EasinessFactor  float64    `json:"easiness_factor"`
	IntervalDays    int        `json:"interval_days"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	MasteryLevel    int        `json:"mastery_level"`
	Mastery         string     `json:"mastery"`
	LastStudied     *time.Time `json:"last_studied,omitempty"`
	Version         int64      `json:"version"`
}

// SlateResponse lists the question ids to study now, reviews first.
type SlateResponse struct {
	UserID      string   `json:"user_id"`
	QuestionIDs []string `json:"question_ids"`
}

// UpdateProfileRequest is the body of PUT /api/users/{userID}/profile.
// Omitted fields keep their current value.
type UpdateProfileRequest struct {
	DisplayName       *string `json:"display_name" validate:"omitempty,min=1,max=160"`
	ShowOnLeaderboard *bool   `json:"show_on_leaderboard"`
}

// RunAggregationRequest optionally fixes the aggregation window. Without a
// body the trailing window ending now is used.
type RunAggregationRequest struct {
	Start *time.Time `json:"start" validate:"required_with=End"`
	End   *time.Time `json:"end" validate:"required_with=Start"`
}

// RunWeeklyResetRequest optionally sets the instant whose week is reset.
type RunWeeklyResetRequest struct {
	At *time.Time `json:"at"`
}

func cardToResponse(card *domain.ReviewCard) ReviewCardResponse {
	return ReviewCardResponse{
		QuestionID:      card.QuestionID,
		RepetitionCount: card.RepetitionCount,
		EasinessFactor:  card.EasinessFactor,
		IntervalDays:    card.IntervalDays,
		DueDate:         card.DueDate,
		MasteryLevel:    int(card.MasteryLevel),
		Mastery:         card.MasteryLevel.String(),
		LastStudied:     card.LastStudied,
		Version:         card.Version,
	}
}
