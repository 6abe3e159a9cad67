package domain

import (
	"time"
)

// DailyStat summarizes one user's answers on one calendar day.
// It is derived data: every aggregation run overwrites it wholesale.
type DailyStat struct {
	UserID            string  `json:"user_id" db:"user_id"`
	Date              string  `json:"date" db:"stat_date"`
	QuestionsAnswered int     `json:"questions_answered" db:"questions_answered"`
	CorrectAnswers    int     `json:"correct_answers" db:"correct_answers"`
	PointsEarned      int     `json:"points_earned" db:"points_earned"`
	Accuracy          float64 `json:"accuracy" db:"accuracy"`
	AverageQuality    float64 `json:"average_quality" db:"average_quality"`
}

// DayFold records what has been folded into a profile for one day.
// Folding the same DailyStat twice finds an identical marker and changes nothing.
type DayFold struct {
	UserID    string `json:"user_id" db:"user_id"`
	Date      string `json:"date" db:"stat_date"`
	Points    int    `json:"points" db:"points"`
	Questions int    `json:"questions" db:"questions"`
	Correct   int    `json:"correct" db:"correct"`
}

// UserProfile is the cumulative per-user aggregate behind the rankings.
// Only the aggregation and ranking jobs mutate it.
type UserProfile struct {
	UserID              string    `json:"user_id" db:"user_id"`
	DisplayName         string    `json:"display_name" db:"display_name"`
	ShowOnLeaderboard   bool      `json:"show_on_leaderboard" db:"show_on_leaderboard"`
	TotalPoints         int       `json:"total_points" db:"total_points"`
	WeeklyPoints        int       `json:"weekly_points" db:"weekly_points"`
	WeekStart           time.Time `json:"week_start" db:"week_start"`
	TotalQuestions      int       `json:"total_questions" db:"total_questions"`
	TotalCorrectAnswers int       `json:"total_correct_answers" db:"total_correct_answers"`
	MasteryScore        float64   `json:"mastery_score" db:"mastery_score"`
	StudyDays           int       `json:"study_days" db:"study_days"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultDisplayName is the name shown for users who never chose one.
func DefaultDisplayName(userID string) string {
	if len(userID) > 8 {
		userID = userID[:8]
	}
	return "User" + userID
}

// NewUserProfile returns an empty profile whose weekly window starts at weekStart.
func NewUserProfile(userID string, weekStart, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:            userID,
		DisplayName:       DefaultDisplayName(userID),
		ShowOnLeaderboard: true,
		WeekStart:         weekStart,
		UpdatedAt:         now,
	}
}

// FoldDailyStat applies stat to p relative to the previous fold marker for
// the same day (nil when the day was never folded) and returns the new marker.
//
// Only the difference between stat and prev is applied, so refolding an
// unchanged day is a no-op and a recomputed day corrects the totals instead of
// double counting. If p's weekly window is older than weekStart, the weekly
// counter is rolled over first. Points only count toward the week when the
// stat's day falls on or after the profile's week start.
func FoldDailyStat(
	p *UserProfile,
	prev *DayFold,
	stat DailyStat,
	weekStart time.Time,
	loc *time.Location,
	now time.Time,
) (DayFold, error) {
	day, err := ParseDate(stat.Date, loc)
	if err != nil {
		return DayFold{}, err
	}

	if p.WeekStart.Before(weekStart) {
		p.WeeklyPoints = 0
		p.WeekStart = weekStart
	}

	var before DayFold
	if prev != nil {
		before = *prev
	}

	dPoints := stat.PointsEarned - before.Points
	dQuestions := stat.QuestionsAnswered - before.Questions
	dCorrect := stat.CorrectAnswers - before.Correct

	p.TotalPoints += dPoints
	p.TotalQuestions += dQuestions
	p.TotalCorrectAnswers += dCorrect
	if !day.Before(p.WeekStart) {
		p.WeeklyPoints += dPoints
	}

	switch {
	case before.Questions == 0 && stat.QuestionsAnswered > 0:
		p.StudyDays++
	case before.Questions > 0 && stat.QuestionsAnswered == 0:
		p.StudyDays--
	}

	p.MasteryScore = MasteryScore(p.TotalCorrectAnswers, p.TotalQuestions)
	p.UpdatedAt = now

	return DayFold{
		UserID:    stat.UserID,
		Date:      stat.Date,
		Points:    stat.PointsEarned,
		Questions: stat.QuestionsAnswered,
		Correct:   stat.CorrectAnswers,
	}, nil
}

// MasteryScore is the cumulative accuracy as a percentage.
func MasteryScore(correct, answered int) float64 {
	if answered <= 0 {
		return 0
	}
	return float64(correct) / float64(answered) * 100
}
