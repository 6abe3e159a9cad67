// Package aggregation runs the scheduled jobs: recomputing daily stats from
// the activity log, folding them into profiles and publishing rankings, and
// the weekly points reset.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/domain/scoring"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/redact"
	"github.com/eddy80524/dental-quiz-app/internal/service/ranking"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"golang.org/x/sync/errgroup"
)

// Job names used in reports and logs.
const (
	JobDailyAggregation = "daily_aggregation"
	JobWeeklyReset      = "weekly_reset"
)

// Defaults.
const (
	DefaultWorkers     = 4
	DefaultWindowHours = 48
)

// ErrInvalidWindow is returned when the window end is not after its start.
var ErrInvalidWindow = errors.New("invalid aggregation window")

// Config tunes the pipeline.
type Config struct {
	// Workers bounds how many users are recomputed concurrently.
	Workers int

	// WindowHours is the trailing window used by RunTrailing.
	WindowHours int

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Pipeline runs the daily aggregation and weekly reset jobs. The two jobs
// never overlap within one process.
type Pipeline struct {
	activity store.ActivityLog
	stats    store.DailyStatStore
	builder  *ranking.Builder
	policy   *scoring.Policy
	cfg      Config
	logger   *slog.Logger

	jobMu sync.Mutex
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	activity store.ActivityLog,
	stats store.DailyStatStore,
	builder *ranking.Builder,
	policy *scoring.Policy,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	if activity == nil {
		panic("activity cannot be nil")
	}
	if stats == nil {
		panic("stats cannot be nil")
	}
	if builder == nil {
		panic("builder cannot be nil")
	}
	if policy == nil {
		policy = scoring.NewDefaultPolicy()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.WindowHours <= 0 {
		cfg.WindowHours = DefaultWindowHours
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		activity: activity,
		stats:    stats,
		builder:  builder,
		policy:   policy,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "aggregation_pipeline")),
	}
}

// RunTrailing aggregates the configured trailing window ending now.
func (p *Pipeline) RunTrailing(ctx context.Context) (*RunReport, error) {
	end := p.cfg.Clock()
	start := end.Add(-time.Duration(p.cfg.WindowHours) * time.Hour)
	return p.RunDailyAggregation(ctx, start, end)
}

// RunDailyAggregation recomputes the daily stats of every (user, date)
// partition that has events in [start, end), folds them into profiles and
// publishes fresh rankings.
//
// Partitions are re-read in full, so running the same window twice writes
// identical stats. Malformed events are skipped and counted in the report;
// the run still succeeds. Any store error aborts the run before publishing.
func (p *Pipeline) RunDailyAggregation(ctx context.Context, start, end time.Time) (*RunReport, error) {
	p.jobMu.Lock()
	defer p.jobMu.Unlock()

	log := logger.FromContextOrDefault(ctx, p.logger).With(slog.String("job", JobDailyAggregation))
	ctx = logger.WithLogger(ctx, log)

	report := &RunReport{
		Job:         JobDailyAggregation,
		WindowStart: start.UTC(),
		WindowEnd:   end.UTC(),
		StartedAt:   p.cfg.Clock().UTC(),
	}

	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow, end, start)
	}

	log.Info("starting daily aggregation",
		slog.Time("window_start", start),
		slog.Time("window_end", end))

	windowEvents, err := p.activity.ListWindow(ctx, start, end)
	if err != nil {
		return p.abort(log, report, "failed to read activity window", err)
	}
	report.EventsInWindow = len(windowEvents)

	loc := p.builder.Location()
	partitions := affectedPartitions(windowEvents, loc)
	users := make([]string, 0, len(partitions))
	for u := range partitions {
		users = append(users, u)
	}
	sort.Strings(users)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for _, userID := range users {
		userID := userID
		dates := partitions[userID]
		g.Go(func() error {
			res, err := p.processUser(gctx, userID, dates, loc)
			if err != nil {
				return err
			}
			mu.Lock()
			report.UsersProcessed++
			report.PartitionsRecomputed += len(dates)
			report.StatsWritten += res.written
			report.SkippedEvents += len(res.skipped)
			for _, s := range res.skipped {
				report.Warnings = append(report.Warnings, fmt.Sprintf("skipped event %s: %s", s.EventID, s.Reason))
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return p.abort(log, report, "failed to recompute daily stats", err)
	}
	if err := ctx.Err(); err != nil {
		return p.abort(log, report, "cancelled before publish", err)
	}

	sort.Strings(report.Warnings)
	if report.Incomplete() {
		log.Warn("aggregation window incomplete",
			slog.Int("skipped_events", report.SkippedEvents),
			slog.String("error", report.Err().Error()))
	}

	version, err := p.builder.Publish(ctx)
	if err != nil {
		return p.abort(log, report, "failed to publish rankings", err)
	}
	report.PublishedVersion = version
	report.FinishedAt = p.cfg.Clock().UTC()

	log.Info("daily aggregation completed",
		slog.Int("events", report.EventsInWindow),
		slog.Int("users", report.UsersProcessed),
		slog.Int("stats_written", report.StatsWritten),
		slog.Int("skipped_events", report.SkippedEvents),
		slog.Int64("version", version))

	return report, nil
}

type userResult struct {
	written int
	skipped []skippedEvent
}

// processUser recomputes, stores and folds every affected day of one user.
func (p *Pipeline) processUser(
	ctx context.Context,
	userID string,
	dates []string,
	loc *time.Location,
) (userResult, error) {
	var res userResult

	parts, err := p.activity.ListPartitions(ctx, userID, dates)
	if err != nil {
		return res, fmt.Errorf("failed to read partitions of user %s: %w", userID, err)
	}

	for _, date := range dates {
		stat, skipped := computeDailyStat(userID, date, parts[date], p.policy, loc)
		res.skipped = append(res.skipped, skipped...)

		if err := p.stats.Put(ctx, stat); err != nil {
			return res, fmt.Errorf("failed to write daily stat %s/%s: %w", userID, date, err)
		}
		res.written++

		if _, err := p.builder.FoldDay(ctx, stat); err != nil {
			return res, err
		}
	}
	return res, nil
}

// RunWeeklyReset zeroes weekly points at the cutover of the week containing
// now and republishes the rankings. It is safe to run repeatedly.
func (p *Pipeline) RunWeeklyReset(ctx context.Context, now time.Time) (*RunReport, error) {
	p.jobMu.Lock()
	defer p.jobMu.Unlock()

	log := logger.FromContextOrDefault(ctx, p.logger).With(slog.String("job", JobWeeklyReset))
	ctx = logger.WithLogger(ctx, log)

	report := &RunReport{
		Job:       JobWeeklyReset,
		StartedAt: p.cfg.Clock().UTC(),
	}

	n, version, err := p.builder.ResetWeekly(ctx, now)
	report.ProfilesReset = n
	if err != nil {
		return p.abort(log, report, "weekly reset failed", err)
	}
	report.PublishedVersion = version
	report.FinishedAt = p.cfg.Clock().UTC()

	return report, nil
}

func (p *Pipeline) abort(log *slog.Logger, report *RunReport, msg string, err error) (*RunReport, error) {
	report.FinishedAt = p.cfg.Clock().UTC()
	log.Error(msg,
		slog.String("error", redact.Error(err)),
		slog.Bool("unavailable", errors.Is(err, store.ErrUnavailable)))
	return report, fmt.Errorf("%s: %w", msg, err)
}

// affectedPartitions groups the window's events into sorted dates per user.
func affectedPartitions(events []*domain.ActivityEvent, loc *time.Location) map[string][]string {
	seen := make(map[string]map[string]struct{})
	for _, e := range events {
		if e == nil || e.UserID == "" {
			continue
		}
		if seen[e.UserID] == nil {
			seen[e.UserID] = make(map[string]struct{})
		}
		seen[e.UserID][e.Date(loc)] = struct{}{}
	}

	out := make(map[string][]string, len(seen))
	for user, dates := range seen {
		list := make([]string, 0, len(dates))
		for d := range dates {
			list = append(list, d)
		}
		sort.Strings(list)
		out[user] = list
	}
	return out
}
