package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/segyhp/loan-engine/internal/app"
	"github.com/segyhp/loan-engine/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger(os.Stdout).With("component", "scheduler")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize loan engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Error("invalid scheduler timezone", "error", err)
		return
	}

	cronLog := cronLogger{logger}
	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc(cfg.Scheduler.COBSchedule, func() {
		runCOB(ctx, engine, cfg.Scheduler.COBTimeout)
	}); err != nil {
		logger.Error("failed to schedule close of business", "error", err)
		return
	}

	var metricsServer *http.Server
	if engine.Metrics != nil {
		metricsServer = &http.Server{Addr: cfg.Server.Address(), Handler: engine.Metrics.Handler()}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	c.Start()
	logger.Info("scheduler started", "cob_schedule", cfg.Scheduler.COBSchedule, "timezone", location.String())

	<-ctx.Done()
	logger.Info("shutting down scheduler")

	// Stop returns a context that is done once running jobs finished.
	<-c.Stop().Done()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	logger.Info("scheduler stopped")
}

func runCOB(ctx context.Context, engine *app.App, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report, err := engine.Delinquency.RunCOB(ctx)
	if err != nil {
		engine.Logger.Error("close of business aborted", "error", err)
		return
	}
	if report.Failed > 0 {
		engine.Logger.Warn("close of business finished with failures",
			"business_date", report.BusinessDate, "failed", report.Failed)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
