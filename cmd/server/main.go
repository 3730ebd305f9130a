package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/segyhp/loan-engine/internal/app"
	"github.com/segyhp/loan-engine/internal/config"
	"github.com/segyhp/loan-engine/internal/handler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize loan engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("failed to release resources", "error", err)
		}
	}()

	validate, err := handler.NewValidator()
	if err != nil {
		logger.Error("failed to build request validator", "error", err)
		return
	}

	router := handler.NewRouter(handler.Routes{
		Loans:       handler.NewLoanHandler(engine.Loans, validate, logger),
		Delinquency: handler.NewDelinquencyHandler(engine.Delinquency, validate, logger),
		Health:      handler.NewHealthHandler(engine.HealthChecks(), cfg.Health.Timeout),
		Metrics:     engine.Metrics,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("server failed", "error", err)
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}
	logger.Info("server exited")
}
