package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apimw "github.com/eddy80524/dental-quiz-app/internal/api/middleware"
	"github.com/eddy80524/dental-quiz-app/internal/api/shared"
	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/domain/scoring"
	"github.com/eddy80524/dental-quiz-app/internal/domain/srs"
	"github.com/eddy80524/dental-quiz-app/internal/normalize"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/platform/memory"
	"github.com/eddy80524/dental-quiz-app/internal/service/aggregation"
	"github.com/eddy80524/dental-quiz-app/internal/service/ranking"
	"github.com/eddy80524/dental-quiz-app/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday 2024-01-03 12:00 in Tokyo.
var testNow = time.Date(2024, 1, 3, 3, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	log, _ := logger.NewTestLogger()
	clock := func() time.Time { return testNow }

	activity := memory.NewActivityLog()
	catalog := memory.NewQuestionCatalog(
		domain.Question{ID: "q1", Subject: "anatomy"},
		domain.Question{ID: "q2", Subject: "pathology"},
		domain.Question{ID: "q3", Subject: "pharmacology"},
	)

	reviewSvc := review.NewService(memory.NewCardStore(), activity, catalog, srs.NewDefaultService(),
		normalize.NewDefault(), review.Config{Location: loc, Clock: clock}, log)
	builder := ranking.NewBuilder(memory.NewProfileStore(), memory.NewRankingStore(), nil,
		ranking.Config{Location: loc, Clock: clock}, log)
	pipeline := aggregation.NewPipeline(activity, memory.NewDailyStatStore(), builder,
		scoring.NewDefaultPolicy(), aggregation.Config{Clock: clock}, log)

	return NewRouter(RouterConfig{
		Review:        reviewSvc,
		Builder:       builder,
		Pipeline:      pipeline,
		AnswerLimiter: apimw.NewRateLimiter(0.001, 2),
		Clock:         clock,
		Logger:        log,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestSubmitAnswer(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/users/u1/answers",
		`{"question_id":"q1","quality":4,"is_correct":true,"timestamp":"2024-01-03T02:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var card ReviewCardResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&card))
	assert.Equal(t, "q1", card.QuestionID)
	assert.Equal(t, 1, card.RepetitionCount)
	assert.Equal(t, 1, card.IntervalDays)
	assert.Equal(t, int64(1), card.Version)
	require.NotNil(t, card.DueDate)
	assert.True(t, card.DueDate.Equal(time.Date(2024, 1, 4, 2, 0, 0, 0, time.UTC)))
}

func TestSubmitAnswer_BadRequests(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	tests := []struct {
		name    string
		user    string
		body    string
		wantMsg string
	}{
		{
			name:    "quality out of range",
			user:    "u1",
			body:    `{"question_id":"q1","quality":7,"is_correct":true}`,
			wantMsg: "Quality must be an integer between 0 and 5",
		},
		{
			name:    "missing quality",
			user:    "u2",
			body:    `{"question_id":"q1","is_correct":true}`,
			wantMsg: "Quality must be an integer between 0 and 5",
		},
		{
			name:    "unrecognized timestamp",
			user:    "u3",
			body:    `{"question_id":"q1","quality":3,"timestamp":"yesterday"}`,
			wantMsg: "Unrecognized timestamp format",
		},
		{
			name:    "missing question",
			user:    "u4",
			body:    `{"quality":3}`,
			wantMsg: "Invalid question_id: required field",
		},
		{
			name:    "unknown field",
			user:    "u5",
			body:    `{"question_id":"q1","quality":3,"score":9}`,
			wantMsg: "Invalid request body",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/users/"+tt.user+"/answers", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec).Error)
		})
	}
}

func TestSubmitAnswer_RateLimited(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	for i, q := range []string{"q1", "q2"} {
		rec := do(t, h, http.MethodPost, "/api/users/u1/answers",
			`{"question_id":"`+q+`","quality":3,"is_correct":true}`)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := do(t, h, http.MethodPost, "/api/users/u1/answers", `{"question_id":"q3","quality":3}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.True(t, decodeError(t, rec).Retryable)

	rec = do(t, h, http.MethodPost, "/api/users/u2/answers", `{"question_id":"q3","quality":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDueSlate(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/users/u1/slate?review_limit=5&new_limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var slate SlateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&slate))
	assert.Equal(t, "u1", slate.UserID)
	assert.Len(t, slate.QuestionIDs, 2)
	for _, id := range slate.QuestionIDs {
		assert.Contains(t, []string{"q1", "q2", "q3"}, id)
	}

	rec = do(t, h, http.MethodGet, "/api/users/u1/slate?new_limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankingFlow(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/rankings/weekly", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No ranking has been published yet", decodeError(t, rec).Error)

	answers := map[string]string{
		"u1": `{"question_id":"q1","quality":5,"is_correct":true,"timestamp":"2024-01-03T01:00:00Z"}`,
		"u2": `{"question_id":"q1","quality":3,"is_correct":true,"timestamp":"2024-01-03T01:00:00Z"}`,
	}
	for user, body := range answers {
		rec := do(t, h, http.MethodPost, "/api/users/"+user+"/answers", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/jobs/daily-aggregation",
		`{"start":"2024-01-02T00:00:00Z","end":"2024-01-04T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report aggregation.RunReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 2, report.UsersProcessed)
	assert.Equal(t, int64(1), report.PublishedVersion)

	rec = do(t, h, http.MethodGet, "/api/rankings/weekly?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap domain.RankingSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "u1", snap.Entries[0].UserID)
	assert.Equal(t, 15.0, snap.Entries[0].Score)
	assert.Equal(t, 2, snap.TotalParticipants)

	rec = do(t, h, http.MethodGet, "/api/rankings/weekly/users/u2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rank domain.UserRank
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rank))
	assert.Equal(t, 2, rank.Rank)
	assert.Equal(t, 2, rank.TotalUsers)
	assert.InDelta(t, 100.0, rank.Percentile, 1e-9)

	rec = do(t, h, http.MethodGet, "/api/rankings/weekly/users/nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/rankings/daily", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown ranking variant", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodGet, "/api/rankings/weekly?limit=1000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunDailyAggregation_InvalidWindow(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/jobs/daily-aggregation",
		`{"start":"2024-01-04T00:00:00Z","end":"2024-01-02T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid time window", decodeError(t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/jobs/daily-aggregation", `{"start":"2024-01-04T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/jobs/daily-aggregation", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWeeklyReset(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/jobs/weekly-reset", `{"at":"2024-01-08T00:00:00+09:00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report aggregation.RunReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, aggregation.JobWeeklyReset, report.Job)
	assert.Zero(t, report.ProfilesReset)
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/users/u1/profile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/users/u1/profile", `{"display_name":"Dr. Molar","show_on_leaderboard":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile domain.UserProfile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, "Dr. Molar", profile.DisplayName)
	assert.False(t, profile.ShowOnLeaderboard)

	rec = do(t, h, http.MethodGet, "/api/users/u1/profile", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/users/u1/profile", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Nothing to update", decodeError(t, rec).Error)

	long := `{"display_name":"` + strings.Repeat("a", ranking.MaxDisplayNameLength+1) + `"}`
	rec = do(t, h, http.MethodPut, "/api/users/u1/profile", long)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
