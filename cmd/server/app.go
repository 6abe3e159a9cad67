package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/api"
	apimw "github.com/eddy80524/dental-quiz-app/internal/api/middleware"
	"github.com/eddy80524/dental-quiz-app/internal/config"
	"github.com/eddy80524/dental-quiz-app/internal/domain/scoring"
	"github.com/eddy80524/dental-quiz-app/internal/domain/srs"
	"github.com/eddy80524/dental-quiz-app/internal/events"
	"github.com/eddy80524/dental-quiz-app/internal/normalize"
	"github.com/eddy80524/dental-quiz-app/internal/platform/memory"
	"github.com/eddy80524/dental-quiz-app/internal/platform/postgres"
	"github.com/eddy80524/dental-quiz-app/internal/scheduler"
	"github.com/eddy80524/dental-quiz-app/internal/service/aggregation"
	"github.com/eddy80524/dental-quiz-app/internal/service/ranking"
	"github.com/eddy80524/dental-quiz-app/internal/service/review"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"github.com/eddy80524/dental-quiz-app/internal/ws"
	"github.com/jmoiron/sqlx"
)

// stores groups the persistence backends selected at startup.
type stores struct {
	cards    store.ReviewCardStore
	activity store.ActivityLog
	catalog  store.QuestionCatalog
	stats    store.DailyStatStore
	profiles store.ProfileStore
	rankings store.RankingStore
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	clock  func() time.Time

	// nil when running on the in-memory stores
	db *sqlx.DB

	stores   stores
	emitter  *events.InMemoryEventEmitter
	hub      *ws.Hub
	review   review.Service
	builder  *ranking.Builder
	pipeline *aggregation.Pipeline
}

func memoryStores() stores {
	return stores{
		cards:    memory.NewCardStore(),
		activity: memory.NewActivityLog(),
		catalog:  memory.NewQuestionCatalog(),
		stats:    memory.NewDailyStatStore(),
		profiles: memory.NewProfileStore(),
		rankings: memory.NewRankingStore(),
	}
}

func postgresStores(db *sqlx.DB, logger *slog.Logger) stores {
	return stores{
		cards:    postgres.NewPostgresCardStore(db, logger),
		activity: postgres.NewPostgresActivityLog(db, logger),
		catalog:  postgres.NewPostgresQuestionCatalog(db, logger),
		stats:    postgres.NewPostgresDailyStatStore(db, logger),
		profiles: postgres.NewPostgresProfileStore(db, logger),
		rankings: postgres.NewPostgresRankingStore(db, logger),
	}
}

// newApplication wires every service from cfg. An empty database URL selects
// the in-memory stores.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	loc, err := cfg.Ranking.Location()
	if err != nil {
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: logger,
		clock:  time.Now,
	}

	if cfg.Database.URL == "" {
		logger.Warn("no database configured, using in-memory stores")
		app.stores = memoryStores()
	} else {
		db, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.db = db
		app.stores = postgresStores(db, logger)
	}

	normalizer, err := normalize.New(normalize.Config{
		EpochUnit: normalize.EpochUnit(cfg.Normalize.EpochUnit),
		Location:  loc,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create normalizer: %w", err)
	}

	multipliers, err := cfg.Scoring.Multipliers()
	if err != nil {
		app.cleanup()
		return nil, err
	}
	policy, err := scoring.NewPolicy(scoring.PolicyConfig{
		CorrectBase:       cfg.Scoring.CorrectBase,
		IncorrectBase:     cfg.Scoring.IncorrectBase,
		NewCardBonus:      cfg.Scoring.NewCardBonus,
		QualityMultiplier: multipliers,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create scoring policy: %w", err)
	}

	srsService := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		InitialEaseFactor: cfg.Review.InitialEaseFactor,
	}))

	app.review = review.NewService(
		app.stores.cards,
		app.stores.activity,
		app.stores.catalog,
		srsService,
		normalizer,
		review.Config{
			MaxCASRetries:        cfg.Review.MaxCASRetries,
			RecentSubjectPenalty: cfg.Review.RecentSubjectPenalty,
			Location:             loc,
			Clock:                app.clock,
		},
		logger,
	)

	// the hub subscribes to the emitter once it runs, see serve
	app.hub = ws.NewHub(logger)
	app.emitter = events.NewInMemoryEventEmitter(logger)

	app.builder = ranking.NewBuilder(
		app.stores.profiles,
		app.stores.rankings,
		app.emitter,
		ranking.Config{
			Location:            loc,
			MasteryMinQuestions: cfg.Ranking.MasteryMinQuestions,
			Clock:               app.clock,
		},
		logger,
	)

	app.pipeline = aggregation.NewPipeline(
		app.stores.activity,
		app.stores.stats,
		app.builder,
		policy,
		aggregation.Config{
			Workers:     cfg.Ranking.Workers,
			WindowHours: cfg.Ranking.WindowHours,
			Clock:       app.clock,
		},
		logger,
	)

	return app, nil
}

// router builds the HTTP surface on top of the wired services.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Review:        app.review,
		Builder:       app.builder,
		Pipeline:      app.pipeline,
		Rankings:      ws.NewHandler(app.hub, app.config.Server.CORSAllowedOrigins),
		AnswerLimiter: apimw.NewRateLimiter(app.config.RateLimit.AnswersPerSecond, app.config.RateLimit.Burst),
		SlateLimits: api.SlateLimits{
			Review: app.config.Review.DefaultReviewLimit,
			New:    app.config.Review.DefaultNewLimit,
		},
		CORSAllowedOrigins: app.config.Server.CORSAllowedOrigins,
		Clock:              app.clock,
		Logger:             app.logger,
	})
}

// newScheduler returns nil when the cron jobs are disabled.
func (app *application) newScheduler() (*scheduler.Scheduler, error) {
	if !app.config.Ranking.EnableScheduler {
		return nil, nil
	}
	loc, err := app.config.Ranking.Location()
	if err != nil {
		return nil, err
	}
	return scheduler.New(app.pipeline, scheduler.Config{
		DailySpec:  app.config.Ranking.DailyCron,
		WeeklySpec: app.config.Ranking.WeeklyCron,
		Location:   loc,
		Clock:      app.clock,
	}, app.logger)
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", slog.String("error", err.Error()))
		} else {
			app.logger.Info("database connection closed")
		}
		app.db = nil
	}
}
