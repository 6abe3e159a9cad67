package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldDailyStat(t *testing.T) {
	t.Parallel()

	week := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := week.Add(50 * time.Hour)

	t.Run("first fold applies full values", func(t *testing.T) {
		t.Parallel()
		p := NewUserProfile("user-1", week, now)
		stat := DailyStat{UserID: "user-1", Date: "2024-01-02", QuestionsAnswered: 4, CorrectAnswers: 3, PointsEarned: 40}

		marker, err := FoldDailyStat(p, nil, stat, week, time.UTC, now)
		require.NoError(t, err)

		assert.Equal(t, 40, p.TotalPoints)
		assert.Equal(t, 40, p.WeeklyPoints)
		assert.Equal(t, 4, p.TotalQuestions)
		assert.Equal(t, 3, p.TotalCorrectAnswers)
		assert.Equal(t, 1, p.StudyDays)
		assert.InDelta(t, 75.0, p.MasteryScore, 1e-9)
		assert.Equal(t, DayFold{UserID: "user-1", Date: "2024-01-02", Points: 40, Questions: 4, Correct: 3}, marker)
	})

	t.Run("refolding an unchanged day is a no-op", func(t *testing.T) {
		t.Parallel()
		p := NewUserProfile("user-1", week, now)
		stat := DailyStat{UserID: "user-1", Date: "2024-01-02", QuestionsAnswered: 4, CorrectAnswers: 3, PointsEarned: 40}

		marker, err := FoldDailyStat(p, nil, stat, week, time.UTC, now)
		require.NoError(t, err)
		before := *p

		_, err = FoldDailyStat(p, &marker, stat, week, time.UTC, now)
		require.NoError(t, err)
		assert.Equal(t, before, *p)
	})

	t.Run("recomputed day applies only the difference", func(t *testing.T) {
		t.Parallel()
		p := NewUserProfile("user-1", week, now)
		prev := &DayFold{UserID: "user-1", Date: "2024-01-02", Points: 40, Questions: 4, Correct: 3}
		p.TotalPoints, p.WeeklyPoints, p.TotalQuestions, p.TotalCorrectAnswers, p.StudyDays = 40, 40, 4, 3, 1

		stat := DailyStat{UserID: "user-1", Date: "2024-01-02", QuestionsAnswered: 6, CorrectAnswers: 5, PointsEarned: 61}
		_, err := FoldDailyStat(p, prev, stat, week, time.UTC, now)
		require.NoError(t, err)

		assert.Equal(t, 61, p.TotalPoints)
		assert.Equal(t, 61, p.WeeklyPoints)
		assert.Equal(t, 6, p.TotalQuestions)
		assert.Equal(t, 1, p.StudyDays)
	})

	t.Run("days before the week start skip weekly points", func(t *testing.T) {
		t.Parallel()
		p := NewUserProfile("user-1", week, now)
		stat := DailyStat{UserID: "user-1", Date: "2023-12-31", QuestionsAnswered: 2, CorrectAnswers: 2, PointsEarned: 20}

		_, err := FoldDailyStat(p, nil, stat, week, time.UTC, now)
		require.NoError(t, err)

		assert.Equal(t, 20, p.TotalPoints)
		assert.Equal(t, 0, p.WeeklyPoints)
	})

	t.Run("stale weekly window rolls over", func(t *testing.T) {
		t.Parallel()
		p := NewUserProfile("user-1", week.AddDate(0, 0, -7), now)
		p.WeeklyPoints = 99
		stat := DailyStat{UserID: "user-1", Date: "2024-01-03", QuestionsAnswered: 1, CorrectAnswers: 1, PointsEarned: 10}

		_, err := FoldDailyStat(p, nil, stat, week, time.UTC, now)
		require.NoError(t, err)

		assert.Equal(t, 10, p.WeeklyPoints)
		assert.True(t, week.Equal(p.WeekStart))
	})

	t.Run("invalid date", func(t *testing.T) {
		t.Parallel()
		p := NewUserProfile("user-1", week, now)
		_, err := FoldDailyStat(p, nil, DailyStat{UserID: "user-1", Date: "bad"}, week, time.UTC, now)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestDefaultDisplayName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Userabcdefgh", DefaultDisplayName("abcdefghijklmnop"))
	assert.Equal(t, "Userabc", DefaultDisplayName("abc"))
}

func TestActivityEventID(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a := ActivityEventID("u", "q", ts)
	b := ActivityEventID("u", "q", ts.In(time.FixedZone("JST", 9*3600)))
	c := ActivityEventID("u", "q", ts.Add(time.Millisecond))

	assert.Equal(t, a, b, "same instant must yield the same id")
	assert.NotEqual(t, a, c)

	_, err := NewActivityEvent("u", "q", 6, true, false, ts)
	assert.ErrorIs(t, err, ErrInvalidQuality)
}
