package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/config"
	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/service/aggregation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			LogLevel:        "debug",
			ShutdownTimeout: time.Second,
		},
		Review: config.ReviewConfig{
			MaxCASRetries:      3,
			DefaultReviewLimit: 50,
			DefaultNewLimit:    10,
			InitialEaseFactor:  2.5,
		},
		Ranking: config.RankingConfig{
			Timezone:            "Asia/Tokyo",
			DailyCron:           "0 3 * * *",
			WeeklyCron:          "0 0 * * 1",
			WindowHours:         48,
			Workers:             2,
			MasteryMinQuestions: 30,
		},
		Normalize: config.NormalizeConfig{EpochUnit: "ms"},
		RateLimit: config.RateLimitConfig{AnswersPerSecond: 5, Burst: 20},
	}
}

func TestParseTimeFlag(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339",
			value: "2024-01-03T10:00:00Z",
			want:  time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "date in ranking zone",
			value: "2024-01-03",
			want:  time.Date(2024, 1, 3, 0, 0, 0, 0, loc),
		},
		{name: "garbage", value: "yesterday", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseTimeFlag("start", tt.value, loc)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "--start")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestReadQuestions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		path := write("valid.json", `[{"id":"q1","subject":"anatomy"},{"id":"q2"}]`)

		questions, err := readQuestions(path)
		require.NoError(t, err)
		assert.Equal(t, []domain.Question{{ID: "q1", Subject: "anatomy"}, {ID: "q2"}}, questions)
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()
		path := write("missing.json", `[{"subject":"anatomy"}]`)

		_, err := readQuestions(path)
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})

	t.Run("not json", func(t *testing.T) {
		t.Parallel()
		path := write("bad.json", `id,subject`)

		_, err := readQuestions(path)
		assert.Error(t, err)
	})

	t.Run("no such file", func(t *testing.T) {
		t.Parallel()

		_, err := readQuestions(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})
}

func TestNewApplication_MemoryStores(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger()
	app, err := newApplication(context.Background(), testConfig(), log)
	require.NoError(t, err)
	defer app.cleanup()

	assert.Nil(t, app.db)
	assert.NotNil(t, app.stores.cards)
	assert.NotNil(t, app.stores.rankings)
	assert.NotNil(t, app.pipeline)

	rec := httptest.NewRecorder()
	app.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApplication_Scheduler(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger()

	cfg := testConfig()
	app, err := newApplication(context.Background(), cfg, log)
	require.NoError(t, err)

	sched, err := app.newScheduler()
	require.NoError(t, err)
	assert.Nil(t, sched, "scheduler disabled")

	cfg.Ranking.EnableScheduler = true
	sched, err = app.newScheduler()
	require.NoError(t, err)
	assert.NotNil(t, sched)

	cfg.Ranking.DailyCron = "every day"
	_, err = app.newScheduler()
	assert.Error(t, err)
}

func TestNewApplication_InvalidTimezone(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger()
	cfg := testConfig()
	cfg.Ranking.Timezone = "Mars/Olympus"

	_, err := newApplication(context.Background(), cfg, log)
	assert.Error(t, err)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--env-file", ""}, args...))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestAggregateCommand_MemoryStores(t *testing.T) {
	out, err := runCLI(t, "aggregate", "--start", "2024-01-01", "--end", "2024-01-03")
	require.NoError(t, err)

	var report aggregation.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, aggregation.JobDailyAggregation, report.Job)
	assert.Equal(t, 0, report.EventsInWindow)
	assert.Equal(t, int64(1), report.PublishedVersion)
}

func TestAggregateCommand_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "start without end", args: []string{"aggregate", "--start", "2024-01-01"}},
		{name: "unparseable start", args: []string{"aggregate", "--start", "monday", "--end", "2024-01-03"}},
		{name: "unexpected argument", args: []string{"aggregate", "now"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestWeeklyResetCommand_MemoryStores(t *testing.T) {
	out, err := runCLI(t, "weekly-reset", "--at", "2024-01-08T00:00:00+09:00")
	require.NoError(t, err)

	var report aggregation.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, aggregation.JobWeeklyReset, report.Job)
	assert.Equal(t, 0, report.ProfilesReset)
}

func TestCommandsRequiringDatabase(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "migrate", args: []string{"migrate", "status"}, want: "migrate requires a database URL"},
		{name: "import", args: []string{"import-questions", "testdata/none.json"}, want: "failed to read question file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMigrateCommand_RejectsUnknownSubcommand(t *testing.T) {
	_, err := runCLI(t, "migrate", "sideways")
	assert.Error(t, err)
}
