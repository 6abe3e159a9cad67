package testdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/config"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/platform/postgres"
	"github.com/jmoiron/sqlx"
)

// TestTimeout bounds connection setup and migrations.
const TestTimeout = 30 * time.Second

// tables lists every application table, children first.
var tables = []string{
	"ranking_current",
	"ranking_snapshots",
	"profile_folds",
	"user_profiles",
	"daily_stats",
	"activity_events",
	"review_cards",
	"questions",
}

// Open returns a migrated, empty database for t. The test is skipped when
// no database URL is configured and the connection is closed on cleanup.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("skipping database test: no database URL configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	log, _ := logger.NewTestLogger()
	db, err := postgres.Open(ctx, config.DatabaseConfig{URL: dbURL, MaxOpenConns: 5}, log)
	if err != nil {
		t.Fatalf("failed to connect to %s: %v", maskDatabaseURL(dbURL), err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := postgres.Migrate(ctx, db.DB, "up", log); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	Reset(t, db)
	return db
}

// Reset truncates every application table.
func Reset(t *testing.T, db *sqlx.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	query := fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// maskDatabaseURL hides the password in dbURL for safe logging.
func maskDatabaseURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return "[unparseable database url]"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
