package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Review    ReviewConfig    `mapstructure:"review" validate:"required"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Ranking   RankingConfig   `mapstructure:"ranking" validate:"required"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port               int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel           string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory stores.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// ReviewConfig tunes the answer submission path and study slates.
type ReviewConfig struct {
	MaxCASRetries        int     `mapstructure:"max_cas_retries" validate:"gte=1,lte=10"`
	DefaultReviewLimit   int     `mapstructure:"default_review_limit" validate:"gte=1"`
	DefaultNewLimit      int     `mapstructure:"default_new_limit" validate:"gte=0"`
	InitialEaseFactor    float64 `mapstructure:"initial_ease_factor" validate:"gte=1.3"`
	RecentSubjectPenalty float64 `mapstructure:"recent_subject_penalty" validate:"gte=0"`
}

// ScoringConfig overrides the point formula.
type ScoringConfig struct {
	CorrectBase   float64 `mapstructure:"correct_base" validate:"gte=0"`
	IncorrectBase float64 `mapstructure:"incorrect_base" validate:"gte=0"`
	NewCardBonus  float64 `mapstructure:"new_card_bonus" validate:"gte=0"`

	// QualityMultiplier is keyed by rating ("0".."5").
	QualityMultiplier map[string]float64 `mapstructure:"quality_multiplier"`
}

// Multipliers converts QualityMultiplier keys to ratings.
func (s ScoringConfig) Multipliers() (map[int]float64, error) {
	out := make(map[int]float64, len(s.QualityMultiplier))
	for k, v := range s.QualityMultiplier {
		q, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid quality multiplier key %q: %w", k, err)
		}
		out[q] = v
	}
	return out, nil
}

// RankingConfig controls the aggregation and ranking jobs.
type RankingConfig struct {
	Timezone            string `mapstructure:"timezone" validate:"required"`
	DailyCron           string `mapstructure:"daily_cron" validate:"required"`
	WeeklyCron          string `mapstructure:"weekly_cron" validate:"required"`
	WindowHours         int    `mapstructure:"window_hours" validate:"gte=24,lte=168"`
	Workers             int    `mapstructure:"workers" validate:"gte=1,lte=64"`
	MasteryMinQuestions int    `mapstructure:"mastery_min_questions" validate:"gte=0"`
	EnableScheduler     bool   `mapstructure:"enable_scheduler"`
}

// Location loads the configured time zone.
func (r RankingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ranking timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// NormalizeConfig controls timestamp normalization.
type NormalizeConfig struct {
	EpochUnit string `mapstructure:"epoch_unit" validate:"oneof=ms s"`
}

// RateLimitConfig limits answer submissions per user.
type RateLimitConfig struct {
	AnswersPerSecond float64 `mapstructure:"answers_per_second" validate:"gte=0"`
	Burst            int     `mapstructure:"burst" validate:"gte=0"`
}
