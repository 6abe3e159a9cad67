package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"github.com/jmoiron/sqlx"
)

// PostgresProfileStore implements store.ProfileStore on the user_profiles and
// profile_folds tables. Folds lock the profile row so that concurrent folds
// and weekly resets for one user are serialized.
type PostgresProfileStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresProfileStore creates a profile store. It needs the pool itself
// because folds run in their own transaction.
func NewPostgresProfileStore(db *sqlx.DB, logger *slog.Logger) *PostgresProfileStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProfileStore{
		db:     db,
		logger: logger.With(slog.String("component", "profile_store")),
	}
}

var _ store.ProfileStore = (*PostgresProfileStore)(nil)

const profileColumns = `user_id, display_name, show_on_leaderboard, total_points, weekly_points, week_start,
	total_questions, total_correct_answers, mastery_score, study_days, updated_at`

// FoldDay implements store.ProfileStore.
func (s *PostgresProfileStore) FoldDay(
	ctx context.Context,
	stat *domain.DailyStat,
	weekStart time.Time,
	loc *time.Location,
	now time.Time,
) (*domain.UserProfile, error) {
	var out domain.UserProfile

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		p, err := getProfileForUpdate(ctx, tx, stat.UserID, weekStart, now)
		if err != nil {
			return err
		}

		var prev *domain.DayFold
		var marker domain.DayFold
		err = tx.GetContext(ctx, &marker,
			`SELECT user_id, stat_date, points, questions, correct FROM profile_folds
			WHERE user_id = $1 AND stat_date = $2 FOR UPDATE`,
			stat.UserID, stat.Date)
		switch {
		case err == nil:
			prev = &marker
		case !errors.Is(err, sql.ErrNoRows):
			return MapError(err)
		}

		next, err := domain.FoldDailyStat(p, prev, *stat, weekStart, loc, now)
		if err != nil {
			return store.NewStoreError("user_profile", "fold_day", "invalid daily stat", err)
		}

		if _, err := tx.NamedExecContext(ctx,
			`UPDATE user_profiles SET
				total_points = :total_points,
				weekly_points = :weekly_points,
				week_start = :week_start,
				total_questions = :total_questions,
				total_correct_answers = :total_correct_answers,
				mastery_score = :mastery_score,
				study_days = :study_days,
				updated_at = :updated_at
			WHERE user_id = :user_id`, p); err != nil {
			return MapError(err)
		}

		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO profile_folds (user_id, stat_date, points, questions, correct)
			VALUES (:user_id, :stat_date, :points, :questions, :correct)
			ON CONFLICT (user_id, stat_date) DO UPDATE SET
				points = EXCLUDED.points,
				questions = EXCLUDED.questions,
				correct = EXCLUDED.correct`, next); err != nil {
			return MapError(err)
		}

		out = *p
		return nil
	})
	if err != nil {
		s.logger.Error("failed to fold daily stat",
			slog.String("user_id", stat.UserID),
			slog.String("date", stat.Date),
			slog.String("error", err.Error()))
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) {
			return nil, err
		}
		return nil, store.NewStoreError("user_profile", "fold_day", "transaction failed", err)
	}
	return &out, nil
}

// getProfileForUpdate locks the user's profile row, creating it first if needed.
func getProfileForUpdate(
	ctx context.Context,
	tx *sqlx.Tx,
	userID string,
	weekStart, now time.Time,
) (*domain.UserProfile, error) {
	fresh := domain.NewUserProfile(userID, weekStart, now)
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO user_profiles (user_id, display_name, show_on_leaderboard, week_start, updated_at)
		VALUES (:user_id, :display_name, :show_on_leaderboard, :week_start, :updated_at)
		ON CONFLICT (user_id) DO NOTHING`, fresh); err != nil {
		return nil, MapError(err)
	}

	var p domain.UserProfile
	if err := tx.GetContext(ctx, &p,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1 FOR UPDATE`,
		userID); err != nil {
		return nil, MapError(err)
	}
	return &p, nil
}

// ResetWeekly implements store.ProfileStore.
func (s *PostgresProfileStore) ResetWeekly(ctx context.Context, cutover, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_profiles SET weekly_points = 0, week_start = $1, updated_at = $2
		WHERE week_start < $1`,
		cutover, now)
	if err != nil {
		s.logger.Error("failed to reset weekly points",
			slog.Time("cutover", cutover),
			slog.String("error", err.Error()))
		return 0, store.NewStoreError("user_profile", "reset_weekly", "update failed", MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("user_profile", "reset_weekly", "rows affected", err)
	}
	return int(n), nil
}

// Get implements store.ProfileStore.
func (s *PostgresProfileStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := s.db.GetContext(ctx, &p,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProfileNotFound
		}
		return nil, store.NewStoreError("user_profile", "get", "query failed", MapError(err))
	}
	return &p, nil
}

// List implements store.ProfileStore.
func (s *PostgresProfileStore) List(ctx context.Context) ([]*domain.UserProfile, error) {
	var profiles []*domain.UserProfile
	err := s.db.SelectContext(ctx, &profiles,
		`SELECT `+profileColumns+` FROM user_profiles ORDER BY user_id`)
	if err != nil {
		s.logger.Error("failed to list profiles", slog.String("error", err.Error()))
		return nil, store.NewStoreError("user_profile", "list", "query failed", MapError(err))
	}
	return profiles, nil
}

// UpdateSettings implements store.ProfileStore. Nil settings keep their current value.
func (s *PostgresProfileStore) UpdateSettings(
	ctx context.Context,
	userID string,
	settings store.ProfileSettings,
	weekStart, now time.Time,
) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := s.db.GetContext(ctx, &p,
		`INSERT INTO user_profiles (user_id, display_name, show_on_leaderboard, week_start, updated_at)
		VALUES ($1, COALESCE($2, $3), COALESCE($4, TRUE), $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = COALESCE($2, user_profiles.display_name),
			show_on_leaderboard = COALESCE($4, user_profiles.show_on_leaderboard),
			updated_at = $6
		RETURNING `+profileColumns,
		userID, settings.DisplayName, domain.DefaultDisplayName(userID), settings.ShowOnLeaderboard, weekStart, now)
	if err != nil {
		s.logger.Error("failed to update profile settings",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("user_profile", "update_settings", "upsert failed", MapError(err))
	}
	return &p, nil
}
