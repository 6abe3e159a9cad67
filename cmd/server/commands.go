package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/config"
	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/platform/logger"
	"github.com/eddy80524/dental-quiz-app/internal/platform/postgres"
	"github.com/eddy80524/dental-quiz-app/internal/redact"
	"github.com/eddy80524/dental-quiz-app/internal/service/aggregation"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

// cli carries the state shared by every command: the flags of the root
// command and what PersistentPreRunE loads from them.
type cli struct {
	configPath string
	envFile    string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "dental-quiz",
		Short:         "Spaced repetition review and study rankings for dental exam questions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a config file (default ./config.yaml when present)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", defaultEnvFile, "dotenv file loaded before the configuration; empty disables it")

	root.AddCommand(
		c.serveCommand(),
		c.aggregateCommand(),
		c.weeklyResetCommand(),
		c.migrateCommand(),
		c.importQuestionsCommand(),
	)
	return root
}

// load reads the dotenv file, the configuration and sets up logging.
// A missing default dotenv file is not an error.
func (c *cli) load(cmd *cobra.Command) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
				return fmt.Errorf("failed to load env file %s: %w", c.envFile, err)
			}
		}
	}

	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Server, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("database", cfg.Database.URL != ""),
		slog.String("timezone", cfg.Ranking.Timezone))

	c.cfg = cfg
	c.logger = log
	return nil
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the ranking websocket and the scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApplication(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			return app.serve(cmd.Context())
		},
	}
}

func (c *cli) aggregateCommand() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Recompute daily stats for a window and publish new rankings",
		Long: "Recompute daily stats for the events in [start, end) and publish new rankings.\n" +
			"Without flags the configured trailing window ending now is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := c.cfg.Ranking.Location()
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer app.cleanup()

			var report *aggregation.RunReport
			if start == "" && end == "" {
				report, err = app.pipeline.RunTrailing(cmd.Context())
			} else {
				from, perr := parseTimeFlag("start", start, loc)
				if perr != nil {
					return perr
				}
				to, perr := parseTimeFlag("end", end, loc)
				if perr != nil {
					return perr
				}
				report, err = app.pipeline.RunDailyAggregation(cmd.Context(), from, to)
			}
			return c.finish(cmd, report, err)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "window start, RFC 3339 or YYYY-MM-DD in the ranking time zone")
	cmd.Flags().StringVar(&end, "end", "", "window end (exclusive), RFC 3339 or YYYY-MM-DD in the ranking time zone")
	cmd.MarkFlagsRequiredTogether("start", "end")
	return cmd
}

func (c *cli) weeklyResetCommand() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "weekly-reset",
		Short: "Zero weekly points of every profile still in a previous week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := c.cfg.Ranking.Location()
			if err != nil {
				return err
			}

			now := time.Now()
			if at != "" {
				if now, err = parseTimeFlag("at", at, loc); err != nil {
					return err
				}
			}

			app, err := newApplication(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer app.cleanup()

			report, err := app.pipeline.RunWeeklyReset(cmd.Context(), now)
			return c.finish(cmd, report, err)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference time, RFC 3339 or YYYY-MM-DD (default now)")
	return cmd
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Apply or inspect the database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "reset", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if c.cfg.Database.URL == "" {
				return errors.New("migrate requires a database URL")
			}

			db, err := postgres.Open(cmd.Context(), c.cfg.Database, c.logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if cerr := db.Close(); cerr != nil {
					c.logger.Error("failed to close database connection", slog.String("error", redact.Error(cerr)))
				}
			}()

			return postgres.Migrate(cmd.Context(), db.DB, command, c.logger)
		},
	}
}

func (c *cli) importQuestionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-questions FILE",
		Short: "Load question ids and subjects from a JSON array into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := readQuestions(args[0])
			if err != nil {
				return err
			}
			if c.cfg.Database.URL == "" {
				return errors.New("import-questions requires a database URL")
			}

			app, err := newApplication(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if err := app.stores.catalog.UpsertQuestions(cmd.Context(), questions); err != nil {
				return fmt.Errorf("failed to import questions: %w", err)
			}
			c.logger.Info("questions imported", slog.Int("count", len(questions)))
			return nil
		},
	}
}

// readQuestions decodes a catalog file. Every entry needs an id.
func readQuestions(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}

	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode question file: %w", err)
	}
	for i, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question %d has no id", domain.ErrInvalidID, i)
		}
	}
	return questions, nil
}

// finish prints the run report as JSON. An incomplete run still prints its
// report and then fails the command.
func (c *cli) finish(cmd *cobra.Command, report *aggregation.RunReport, runErr error) error {
	if runErr != nil {
		return runErr
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := report.Err(); err != nil {
		c.logger.Warn("run was incomplete", slog.Int("skipped_events", report.SkippedEvents))
		return err
	}
	return nil
}

// parseTimeFlag accepts RFC 3339 timestamps or plain dates, the latter at
// midnight in loc.
func parseTimeFlag(name, value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(domain.DateLayout, value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --%s %q: want RFC 3339 or YYYY-MM-DD", name, value)
}

func execute(ctx context.Context, args []string) error {
	root := newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
