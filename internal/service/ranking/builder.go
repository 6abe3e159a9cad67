// Package ranking folds daily stats into user profiles and publishes the
// weekly, lifetime and mastery leaderboards as immutable snapshots.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/events"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/redact"
	"github.com/eddy80524/dental-quiz-app/internal/store"
)

// MaxDisplayNameLength bounds user-chosen display names, in runes.
const MaxDisplayNameLength = 40

// Errors returned by the builder.
var (
	// ErrRankNotFound indicates the user is not on the requested board.
	ErrRankNotFound = fmt.Errorf("%w: user not ranked", store.ErrNotFound)

	// ErrInvalidDisplayName indicates an empty or overly long display name.
	ErrInvalidDisplayName = fmt.Errorf("%w: display name", domain.ErrValidation)
)

// Config tunes the builder.
type Config struct {
	// Location defines calendar days and the Monday weekly cutover.
	Location *time.Location

	// MasteryMinQuestions gates the mastery board. See SnapshotOptions.
	MasteryMinQuestions int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Builder owns every mutation of user profiles and ranking snapshots.
type Builder struct {
	profiles store.ProfileStore
	rankings store.RankingStore
	emitter  events.Emitter
	cfg      Config
	logger   *slog.Logger
}

// NewBuilder creates a Builder. emitter may be nil.
func NewBuilder(
	profiles store.ProfileStore,
	rankings store.RankingStore,
	emitter events.Emitter,
	cfg Config,
	logger *slog.Logger,
) *Builder {
	if profiles == nil {
		panic("profiles cannot be nil")
	}
	if rankings == nil {
		panic("rankings cannot be nil")
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		profiles: profiles,
		rankings: rankings,
		emitter:  emitter,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "ranking_builder")),
	}
}

// Location returns the configured calendar location.
func (b *Builder) Location() *time.Location {
	return b.cfg.Location
}

// FoldDay folds one recomputed daily stat into the user's profile. Folding an
// unchanged stat again is a no-op.
func (b *Builder) FoldDay(ctx context.Context, stat *domain.DailyStat) (*domain.UserProfile, error) {
	now := b.cfg.Clock()
	weekStart := domain.WeekStart(now, b.cfg.Location)

	p, err := b.profiles.FoldDay(ctx, stat, weekStart, b.cfg.Location, now)
	if err != nil {
		return nil, fmt.Errorf("failed to fold %s for user %s: %w", stat.Date, stat.UserID, err)
	}
	return p, nil
}

// Publish rebuilds all three boards from the current profiles and makes them
// current in one atomic step. It returns the shared snapshot version.
func (b *Builder) Publish(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)
	now := b.cfg.Clock()

	profiles, err := b.profiles.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list profiles: %w", err)
	}

	// nothing may be published after cancellation
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	snapshots := BuildSnapshots(profiles, now, SnapshotOptions{
		WeekStart:           domain.WeekStart(now, b.cfg.Location),
		MasteryMinQuestions: b.cfg.MasteryMinQuestions,
	})

	version, err := b.rankings.Publish(ctx, snapshots)
	if err != nil {
		return 0, fmt.Errorf("failed to publish snapshots: %w", err)
	}

	log.Info("published ranking snapshots",
		slog.Int64("version", version),
		slog.Int("profiles", len(profiles)),
		slog.Int("participants", snapshots[0].TotalParticipants))

	payload := events.RankingPublished{
		Version:     version,
		GeneratedAt: now.UTC(),
		Leaders:     make(map[string]string, len(snapshots)),
	}
	for _, s := range snapshots {
		payload.Variants = append(payload.Variants, string(s.Variant))
		if len(s.Entries) > 0 {
			payload.Leaders[string(s.Variant)] = s.Entries[0].DisplayName
		}
	}
	b.emit(ctx, events.TypeRankingPublished, payload, now)

	return version, nil
}

// ResetWeekly rolls every profile whose weekly window started before the
// week containing now over to that week, then republishes. Running it again
// for the same week resets nothing.
func (b *Builder) ResetWeekly(ctx context.Context, now time.Time) (int, int64, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)
	cutover := domain.WeekStart(now, b.cfg.Location)

	n, err := b.profiles.ResetWeekly(ctx, cutover, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to reset weekly points: %w", err)
	}
	log.Info("weekly points reset",
		slog.Time("cutover", cutover),
		slog.Int("profiles_reset", n))
	b.emit(ctx, events.TypeWeeklyReset, events.WeeklyReset{Cutover: cutover, ProfilesReset: n}, now)

	version, err := b.Publish(ctx)
	if err != nil {
		return n, 0, err
	}
	return n, version, nil
}

// Current returns the current snapshot of variant. A positive limit keeps
// only the top entries.
func (b *Builder) Current(ctx context.Context, variant domain.RankingVariant, limit int) (*domain.RankingSnapshot, error) {
	snap, err := b.rankings.Current(ctx, variant)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(snap.Entries) > limit {
		snap.Entries = snap.Entries[:limit]
	}
	return snap, nil
}

// UserRank looks the user up on the current board of variant.
func (b *Builder) UserRank(ctx context.Context, variant domain.RankingVariant, userID string) (*domain.UserRank, error) {
	snap, err := b.rankings.Current(ctx, variant)
	if err != nil {
		return nil, err
	}

	entry, ok := snap.Find(userID)
	if !ok {
		return nil, ErrRankNotFound
	}

	return &domain.UserRank{
		Variant:    variant,
		Version:    snap.Version,
		UserID:     userID,
		Rank:       entry.Rank,
		Score:      entry.Score,
		TotalUsers: snap.TotalParticipants,
		Percentile: Percentile(entry.Rank, snap.TotalParticipants),
	}, nil
}

// Profile returns the user's aggregate profile.
func (b *Builder) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidID
	}
	return b.profiles.Get(ctx, userID)
}

// UpdateProfile changes a user's display name or leaderboard visibility.
// Nil arguments keep the current value. Boards pick the change up at the
// next publish.
func (b *Builder) UpdateProfile(
	ctx context.Context,
	userID string,
	displayName *string,
	showOnLeaderboard *bool,
) (*domain.UserProfile, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidID
	}
	if displayName != nil {
		name := strings.TrimSpace(*displayName)
		if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLength {
			return nil, ErrInvalidDisplayName
		}
		displayName = &name
	}

	now := b.cfg.Clock()
	p, err := b.profiles.UpdateSettings(ctx, userID, store.ProfileSettings{
		DisplayName:       displayName,
		ShowOnLeaderboard: showOnLeaderboard,
	}, domain.WeekStart(now, b.cfg.Location), now)
	if err != nil {
		log.Error("failed to update profile",
			slog.String("user_id", userID),
			slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

func (b *Builder) emit(ctx context.Context, eventType string, payload any, now time.Time) {
	ev, err := events.NewEvent(eventType, payload, now)
	if err == nil {
		err = b.emitter.EmitEvent(ctx, ev)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.FromContextOrDefault(ctx, b.logger).Warn("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
