package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TRAINER_SERVER_PORT.
const EnvPrefix = "TRAINER"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("review.max_cas_retries", 3)
	v.SetDefault("review.default_review_limit", 50)
	v.SetDefault("review.default_new_limit", 10)
	v.SetDefault("review.initial_ease_factor", 2.5)
	v.SetDefault("review.recent_subject_penalty", 0.15)

	v.SetDefault("scoring.correct_base", 10.0)
	v.SetDefault("scoring.incorrect_base", 2.0)
	v.SetDefault("scoring.new_card_bonus", 5.0)
	v.SetDefault("scoring.quality_multiplier", map[string]float64{})

	v.SetDefault("ranking.timezone", "Asia/Tokyo")
	v.SetDefault("ranking.daily_cron", "0 3 * * *")
	v.SetDefault("ranking.weekly_cron", "0 0 * * 1")
	v.SetDefault("ranking.window_hours", 48)
	v.SetDefault("ranking.workers", 8)
	v.SetDefault("ranking.mastery_min_questions", 30)
	v.SetDefault("ranking.enable_scheduler", true)

	v.SetDefault("normalize.epoch_unit", "ms")

	v.SetDefault("ratelimit.answers_per_second", 5.0)
	v.SetDefault("ratelimit.burst", 20)
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the file, which take
// precedence over defaults. Returns a validated Config.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file when path is set.
// Without a path, config.yaml is looked up in the working directory and
// silently skipped when missing.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Ranking.Location(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Scoring.Multipliers(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
