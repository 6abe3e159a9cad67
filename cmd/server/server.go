package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/redact"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// serve runs the HTTP server, the websocket hub and, when enabled, the cron
// scheduler until ctx is cancelled. Shutdown is graceful within the
// configured timeout.
func (app *application) serve(ctx context.Context) error {
	defer app.cleanup()

	sched, err := app.newScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.hub.Run(gctx)
		return nil
	})
	app.emitter.RegisterHandler(app.hub)

	if sched != nil {
		g.Go(func() error {
			sched.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")

		timeout := app.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("server shutdown failed", slog.String("error", redact.Error(err)))
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	app.logger.Info("server shutdown completed")
	return nil
}
