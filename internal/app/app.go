// Package app assembles the loan engine from configuration. The API server and the
// close-of-business scheduler share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/loan-engine/internal/config"
	"github.com/segyhp/loan-engine/internal/events"
	"github.com/segyhp/loan-engine/internal/handler"
	"github.com/segyhp/loan-engine/internal/metrics"
	"github.com/segyhp/loan-engine/internal/repository"
	"github.com/segyhp/loan-engine/internal/retry"
	"github.com/segyhp/loan-engine/internal/service"
)

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sqlx.DB
	Redis     *redis.Client
	Metrics   *metrics.Metrics
	Publisher events.Publisher

	Loans       *service.LoanService
	Delinquency *service.DelinquencyService
}

// New connects to the database, and to Redis and Kafka when configured, applies pending
// migrations if asked to and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	clock, err := service.NewBusinessClock(cfg.Business.Date, cfg.Business.Timezone)
	if err != nil {
		return nil, err
	}

	if cfg.Database.MigrateOnStart {
		if err := repository.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied", "path", cfg.Database.MigrationsPath)
	}

	a.DB, err = initDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	deps := service.Dependencies{
		Loans:        repository.NewLoanRepository(a.DB),
		Transactions: repository.NewTransactionRepository(a.DB),
		Charges:      repository.NewChargeRepository(a.DB),
		Journal:      repository.NewJournalRepository(a.DB),
		Delinquency:  repository.NewDelinquencyRepository(a.DB),
		TxManager:    repository.NewTxManager(a.DB),
		Clock:        clock,
		Currency:     cfg.Business.DefaultCurrency,
		Logger:       logger,
	}

	if cfg.Redis.URL != "" {
		a.Redis, err = initRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		deps.Cache = repository.NewScheduleCache(a.Redis, cfg.Redis.CacheTTL)
		deps.Locker = repository.NewLoanLocker(a.Redis, cfg.Redis.LockTTL)
	} else {
		logger.Warn("REDIS_URL not set, running without schedule cache and loan lock")
	}

	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		a.Publisher = events.NewKafkaPublisher(brokers, cfg.Kafka.Topic, logger)
	} else {
		a.Publisher = events.NewLogPublisher(logger)
	}
	deps.Publisher = a.Publisher

	var retryOpts []retry.Option
	if cfg.Server.MetricsEnabled {
		a.Metrics = metrics.New()
		deps.Observer = a.Metrics
		retryOpts = append(retryOpts, retry.WithNotify(a.Metrics.ObserveRetry))
	}
	deps.Retry = retry.New(retry.Config{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		WaitDuration: cfg.Retry.WaitDuration,
	}, logger, retryOpts...)

	a.Loans = service.NewLoanService(deps)
	a.Delinquency = service.NewDelinquencyService(deps)
	return a, nil
}

// HealthChecks lists the readiness checks of the connected dependencies.
func (a *App) HealthChecks() map[string]handler.Check {
	checks := map[string]handler.Check{"database": handler.DatabaseCheck(a.DB)}
	if a.Redis != nil {
		checks["redis"] = handler.RedisCheck(a.Redis)
	}
	return checks
}

func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func initDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
