// Package scheduler triggers the aggregation and weekly reset jobs on cron
// schedules evaluated in the ranking time zone.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/redact"
	"github.com/eddy80524/dental-quiz-app/internal/service/aggregation"
	"github.com/robfig/cron/v3"
)

// Jobs is the work the scheduler triggers.
type Jobs interface {
	RunTrailing(ctx context.Context) (*aggregation.RunReport, error)
	RunWeeklyReset(ctx context.Context, now time.Time) (*aggregation.RunReport, error)
}

// Config holds the schedules. Specs use the standard five-field cron syntax
// or descriptors such as "@daily".
type Config struct {
	DailySpec  string
	WeeklySpec string
	Location   *time.Location
	Clock      func() time.Time
}

// Scheduler runs Jobs on their schedules.
type Scheduler struct {
	jobs   Jobs
	cfg    Config
	daily  cron.Schedule
	weekly cron.Schedule
	logger *slog.Logger
}

// New validates the schedules and returns a Scheduler.
func New(jobs Jobs, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if jobs == nil {
		return nil, errors.New("jobs cannot be nil")
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

	daily, err := cron.ParseStandard(cfg.DailySpec)
	if err != nil {
		return nil, fmt.Errorf("invalid daily schedule %q: %w", cfg.DailySpec, err)
	}
	weekly, err := cron.ParseStandard(cfg.WeeklySpec)
	if err != nil {
		return nil, fmt.Errorf("invalid weekly schedule %q: %w", cfg.WeeklySpec, err)
	}

	return &Scheduler{
		jobs:   jobs,
		cfg:    cfg,
		daily:  daily,
		weekly: weekly,
		logger: logger.With(slog.String("component", "scheduler")),
	}, nil
}

// NextRuns returns the next daily and weekly trigger times after t.
func (s *Scheduler) NextRuns(t time.Time) (daily, weekly time.Time) {
	t = t.In(s.cfg.Location)
	return s.daily.Next(t), s.weekly.Next(t)
}

// Run starts the cron loop and blocks until ctx is cancelled. It waits for a
// job in flight to finish before returning.
func (s *Scheduler) Run(ctx context.Context) {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	c.Schedule(s.daily, cron.FuncJob(func() { s.runDaily(ctx) }))
	c.Schedule(s.weekly, cron.FuncJob(func() { s.runWeekly(ctx) }))

	c.Start()
	daily, weekly := s.NextRuns(s.cfg.Clock())
	s.logger.Info("scheduler started",
		slog.Time("next_daily", daily),
		slog.Time("next_weekly", weekly))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runDaily(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("cron triggered: daily aggregation")
	report, err := s.jobs.RunTrailing(ctx)
	s.logRun(aggregation.JobDailyAggregation, report, err)
}

func (s *Scheduler) runWeekly(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("cron triggered: weekly reset")
	report, err := s.jobs.RunWeeklyReset(ctx, s.cfg.Clock())
	s.logRun(aggregation.JobWeeklyReset, report, err)
}

func (s *Scheduler) logRun(job string, report *aggregation.RunReport, err error) {
	if err != nil {
		s.logger.Error("scheduled job failed",
			slog.String("job", job),
			slog.String("error", redact.Error(err)))
		return
	}
	if report != nil && report.Incomplete() {
		s.logger.Warn("scheduled job completed with skipped events",
			slog.String("job", job),
			slog.Int("skipped_events", report.SkippedEvents))
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", redact.Error(err))...)
}
