package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
)

// Config bounds how often a command is attempted.
type Config struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	WaitDuration time.Duration `mapstructure:"wait_duration"`
}

type enclosingKey struct{}

// WithEnclosingTransaction marks ctx as running inside a batch that owns the database
// transaction. Commands under such a context are never retried on their own.
func WithEnclosingTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, enclosingKey{}, true)
}

func IsEnclosingTransaction(ctx context.Context) bool {
	v, _ := ctx.Value(enclosingKey{}).(bool)
	return v
}

// BatchError reports the command of a batch that failed.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch command %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Policy retries commands that failed on a retryable error.
type Policy struct {
	cfg       Config
	retryable func(error) bool
	logger    *slog.Logger
	notify    func(operation string, err error)
}

type Option func(*Policy)

// WithRetryable replaces the predicate deciding which errors are retried.
func WithRetryable(fn func(error) bool) Option {
	return func(p *Policy) { p.retryable = fn }
}

// WithNotify registers a callback run before every retry.
func WithNotify(fn func(operation string, err error)) Option {
	return func(p *Policy) { p.notify = fn }
}

func New(cfg Config, logger *slog.Logger, opts ...Option) *Policy {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	p := &Policy{
		cfg:       cfg,
		retryable: pkgerrors.IsRetryable,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExecuteCommand runs fn until it succeeds, fails with a non-retryable error or the
// attempts are used up. Inside an enclosing transaction fn runs exactly once.
func (p *Policy) ExecuteCommand(ctx context.Context, fn func(ctx context.Context) error) error {
	if IsEnclosingTransaction(ctx) {
		return fn(ctx)
	}
	return p.run(ctx, "executeCommand", fn, p.retryable)
}

// ExecuteBatch runs a batch with an enclosing transaction. Only a BatchError whose
// cause is retryable restarts the whole batch.
func (p *Policy) ExecuteBatch(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx = WithEnclosingTransaction(ctx)
	return p.run(ctx, "batchRetry", fn, func(err error) bool {
		var batchErr *BatchError
		return errors.As(err, &batchErr) && batchErr.Err != nil && p.retryable(batchErr.Err)
	})
}

func (p *Policy) run(ctx context.Context, name string, fn func(ctx context.Context) error, retryable func(error) bool) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.cfg.WaitDuration), uint64(p.cfg.MaxAttempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		p.logger.Warn("retrying command",
			"operation", name,
			"attempt", attempt,
			"wait", wait,
			"error", err)
		if p.notify != nil {
			p.notify(name, err)
		}
	}
	return backoff.RetryNotify(operation, b, notify)
}
