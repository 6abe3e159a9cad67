package api

import (
	"log/slog"
	"net/http"
	"time"

	apimw "github.com/eddy80524/dental-quiz-app/internal/api/middleware"
	"github.com/eddy80524/dental-quiz-app/internal/service/aggregation"
	"github.com/eddy80524/dental-quiz-app/internal/service/ranking"
	"github.com/eddy80524/dental-quiz-app/internal/service/review"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Review   review.Service
	Builder  *ranking.Builder
	Pipeline *aggregation.Pipeline

	// Rankings streams ranking events; nil disables /ws/rankings.
	Rankings http.Handler

	// AnswerLimiter throttles answer submissions per user; nil disables it.
	AnswerLimiter *apimw.RateLimiter

	SlateLimits        SlateLimits
	CORSAllowedOrigins []string
	Clock              func() time.Time
	Logger             *slog.Logger
}

// NewRouter builds the application router.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimw.NewTraceMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	reviewHandler := NewReviewHandler(cfg.Review, cfg.SlateLimits, cfg.Clock, cfg.Logger)
	rankingHandler := NewRankingHandler(cfg.Builder, cfg.Logger)
	jobHandler := NewJobHandler(cfg.Pipeline, cfg.Clock, cfg.Logger)

	answerLimit := cfg.AnswerLimiter.Limit(func(r *http.Request) string {
		return chi.URLParam(r, "userID")
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users/{userID}", func(r chi.Router) {
			r.With(answerLimit).Post("/answers", reviewHandler.SubmitAnswer)
			r.Get("/slate", reviewHandler.GetDueSlate)
			r.Get("/profile", rankingHandler.GetProfile)
			r.Put("/profile", rankingHandler.UpdateProfile)
		})

		r.Get("/rankings/{variant}", rankingHandler.GetRanking)
		r.Get("/rankings/{variant}/users/{userID}", rankingHandler.GetUserRank)

		r.Post("/jobs/daily-aggregation", jobHandler.RunDailyAggregation)
		r.Post("/jobs/weekly-reset", jobHandler.RunWeeklyReset)
	})

	if cfg.Rankings != nil {
		r.Handle("/ws/rankings", cfg.Rankings)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			cfg.Logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
