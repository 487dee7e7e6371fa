package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment/cmd"
	httpin "fulfillment/internal/adapters/in/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(os.Args[1:], logger); err != nil {
		log.Fatalf("%v", err)
	}
}

// run returns instead of exiting so that every deferred release runs.
func run(args []string, logger *slog.Logger) error {
	config, err := cmd.LoadConfig(args)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("error building application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Error releasing resources", "error", err)
		}
	}()

	if err := app.Jobs.StartAll(); err != nil {
		return fmt.Errorf("error starting background jobs: %w", err)
	}
	defer app.Jobs.StopAll()

	e := newEcho(app, logger)
	serveErr := make(chan error, 1)
	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", config.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case runErr = <-serveErr:
		logger.Error("HTTP server stopped", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	return runErr
}

func newEcho(app *cmd.CompositionRoot, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpin.ErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(httpin.RequestLogger(logger))

	app.Server.Register(e, app.MetricsHandler)
	return e
}
