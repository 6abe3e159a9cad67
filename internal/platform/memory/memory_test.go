package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokyo = mustLoad("Asia/Tokyo")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestCardStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewCardStore()

	card, err := domain.NewReviewCard("u1", "q1")
	require.NoError(t, err)

	_, err = s.Get(ctx, "u1", "q1")
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	stored, err := s.CompareAndSwap(ctx, "u1", "q1", 0, card)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)

	// creating again with version 0 must fail
	_, err = s.CompareAndSwap(ctx, "u1", "q1", 0, card)
	assert.ErrorIs(t, err, store.ErrConflict)

	stored.RepetitionCount = 1
	updated, err := s.CompareAndSwap(ctx, "u1", "q1", 1, stored)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 1, updated.RepetitionCount)

	_, err = s.CompareAndSwap(ctx, "u1", "q1", 1, stored)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.CompareAndSwap(ctx, "u1", "q2", 0, card)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestCardStore_ConcurrentCASHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewCardStore()
	card, err := domain.NewReviewCard("u1", "q1")
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CompareAndSwap(ctx, "u1", "q1", 0, card); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestCardStore_ListByUser(t *testing.T) {
	ctx := context.Background()
	s := NewCardStore()
	for _, key := range [][2]string{{"u1", "q2"}, {"u1", "q1"}, {"u2", "q1"}} {
		card, err := domain.NewReviewCard(key[0], key[1])
		require.NoError(t, err)
		_, err = s.CompareAndSwap(ctx, key[0], key[1], 0, card)
		require.NoError(t, err)
	}

	cards, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "q1", cards[0].QuestionID)
	assert.Equal(t, "q2", cards[1].QuestionID)
}

func TestActivityLog_AppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewActivityLog()
	ts := time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC)

	event, err := domain.NewActivityEvent("u1", "q1", 4, true, false, ts)
	require.NoError(t, err)
	date := event.Date(tokyo)

	require.NoError(t, l.Append(ctx, date, event))
	require.NoError(t, l.Append(ctx, date, event))

	parts, err := l.ListPartitions(ctx, "u1", []string{date, "2024-01-04"})
	require.NoError(t, err)
	assert.Len(t, parts[date], 1)
	assert.Empty(t, parts["2024-01-04"])

	bad := *event
	bad.Quality = 9
	assert.Error(t, l.Append(ctx, date, &bad))
}

func TestActivityLog_ListWindowAndRecent(t *testing.T) {
	ctx := context.Background()
	l := NewActivityLog()
	base := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	for i, q := range []string{"q1", "q2", "q3"} {
		ev, err := domain.NewActivityEvent("u1", q, 3, true, false, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, l.Append(ctx, ev.Date(tokyo), ev))
	}
	other, err := domain.NewActivityEvent("u2", "q1", 3, true, false, base)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, other.Date(tokyo), other))

	window, err := l.ListWindow(ctx, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, window, 3) // q1 and q2 for u1, q1 for u2

	recent, err := l.ListRecent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "q3", recent[0].QuestionID)
	assert.Equal(t, "q2", recent[1].QuestionID)
}

func TestDailyStatStore(t *testing.T) {
	ctx := context.Background()
	s := NewDailyStatStore()

	_, err := s.Get(ctx, "u1", "2024-01-01")
	assert.ErrorIs(t, err, store.ErrDailyStatNotFound)

	require.NoError(t, s.Put(ctx, &domain.DailyStat{UserID: "u1", Date: "2024-01-02", PointsEarned: 5}))
	require.NoError(t, s.Put(ctx, &domain.DailyStat{UserID: "u1", Date: "2024-01-01", PointsEarned: 3}))
	require.NoError(t, s.Put(ctx, &domain.DailyStat{UserID: "u1", Date: "2024-01-01", PointsEarned: 7}))

	got, err := s.Get(ctx, "u1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 7, got.PointsEarned)

	list, err := s.ListByUser(ctx, "u1", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-01", list[0].Date)
}

func TestProfileStore_FoldDayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewProfileStore()
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, tokyo)
	week := domain.WeekStart(now, tokyo)

	stat := &domain.DailyStat{UserID: "u1", Date: "2024-01-03", QuestionsAnswered: 4, CorrectAnswers: 3, PointsEarned: 32}

	p, err := s.FoldDay(ctx, stat, week, tokyo, now)
	require.NoError(t, err)
	assert.Equal(t, 32, p.TotalPoints)
	assert.Equal(t, 32, p.WeeklyPoints)
	assert.Equal(t, 1, p.StudyDays)

	p, err = s.FoldDay(ctx, stat, week, tokyo, now)
	require.NoError(t, err)
	assert.Equal(t, 32, p.TotalPoints)
	assert.Equal(t, 1, p.StudyDays)

	revised := *stat
	revised.QuestionsAnswered = 5
	revised.PointsEarned = 40
	p, err = s.FoldDay(ctx, &revised, week, tokyo, now)
	require.NoError(t, err)
	assert.Equal(t, 40, p.TotalPoints)
	assert.Equal(t, 5, p.TotalQuestions)
	assert.InDelta(t, 60.0, p.MasteryScore, 1e-9)
}

func TestProfileStore_ResetWeekly(t *testing.T) {
	ctx := context.Background()
	s := NewProfileStore()
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, tokyo)
	week := domain.WeekStart(now, tokyo)

	_, err := s.FoldDay(ctx, &domain.DailyStat{UserID: "u1", Date: "2024-01-03", QuestionsAnswered: 1, PointsEarned: 10}, week, tokyo, now)
	require.NoError(t, err)

	next := week.AddDate(0, 0, 7)
	n, err := s.ResetWeekly(ctx, next, next)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, p.WeeklyPoints)
	assert.Equal(t, 10, p.TotalPoints)
	assert.True(t, p.WeekStart.Equal(next))

	// a second reset for the same cutover touches nothing
	n, err = s.ResetWeekly(ctx, next, next)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProfileStore_UpdateSettingsAndList(t *testing.T) {
	ctx := context.Background()
	s := NewProfileStore()
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, tokyo)
	week := domain.WeekStart(now, tokyo)

	_, err := s.Get(ctx, "u2")
	assert.ErrorIs(t, err, store.ErrProfileNotFound)

	name := "Dr. Molar"
	hidden := false
	p, err := s.UpdateSettings(ctx, "u2", store.ProfileSettings{DisplayName: &name, ShowOnLeaderboard: &hidden}, week, now)
	require.NoError(t, err)
	assert.Equal(t, name, p.DisplayName)
	assert.False(t, p.ShowOnLeaderboard)

	_, err = s.UpdateSettings(ctx, "u1", store.ProfileSettings{}, week, now)
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u1", list[0].UserID)
	assert.Equal(t, domain.DefaultDisplayName("u1"), list[0].DisplayName)
}

func TestRankingStore_PublishSharesOneVersion(t *testing.T) {
	ctx := context.Background()
	s := NewRankingStore()

	_, err := s.Current(ctx, domain.RankingWeekly)
	assert.ErrorIs(t, err, store.ErrSnapshotNotFound)

	batch := func() []*domain.RankingSnapshot {
		var out []*domain.RankingSnapshot
		for _, v := range domain.RankingVariants {
			out = append(out, &domain.RankingSnapshot{Variant: v, Entries: []domain.RankingEntry{{UserID: "u1", Rank: 1}}})
		}
		return out
	}

	v1, err := s.Publish(ctx, batch())
	require.NoError(t, err)
	v2, err := s.Publish(ctx, batch())
	require.NoError(t, err)
	assert.Equal(t, v1+1, v2)

	for _, v := range domain.RankingVariants {
		cur, err := s.Current(ctx, v)
		require.NoError(t, err)
		assert.Equal(t, v2, cur.Version)
	}

	old, err := s.GetVersion(ctx, domain.RankingMastery, v1)
	require.NoError(t, err)
	assert.Equal(t, v1, old.Version)

	_, err = s.Publish(ctx, nil)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestQuestionCatalog_KeepsOrder(t *testing.T) {
	ctx := context.Background()
	c := NewQuestionCatalog(
		domain.Question{ID: "b", Subject: "anatomy"},
		domain.Question{ID: "a", Subject: "pathology"},
	)
	require.NoError(t, c.UpsertQuestions(ctx, []domain.Question{
		{ID: "b", Subject: "histology"},
		{ID: "c", Subject: "anatomy"},
	}))

	qs, err := c.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{qs[0].ID, qs[1].ID, qs[2].ID})
	assert.Equal(t, "histology", qs[0].Subject)
}
