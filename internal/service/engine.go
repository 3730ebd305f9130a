package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/loan-engine/internal/accounting"
	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/events"
	"github.com/segyhp/loan-engine/internal/processor"
	"github.com/segyhp/loan-engine/internal/repository"
	"github.com/segyhp/loan-engine/internal/retry"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// Observer receives the measurements of the services. metrics.Metrics implements it.
type Observer interface {
	ObserveTransaction(txType string, err error)
	ObserveReplay(d time.Duration)
	ObserveCacheLookup(hit bool)
	ObserveCOB(d time.Duration, failed int, counts map[string]int)
}

type noopObserver struct{}

func (noopObserver) ObserveTransaction(string, error)             {}
func (noopObserver) ObserveReplay(time.Duration)                  {}
func (noopObserver) ObserveCacheLookup(bool)                      {}
func (noopObserver) ObserveCOB(time.Duration, int, map[string]int) {}

// Dependencies wires the services. Cache and Locker are optional.
type Dependencies struct {
	Loans        repository.LoanRepository
	Transactions repository.TransactionRepository
	Charges      repository.ChargeRepository
	Journal      repository.JournalRepository
	Delinquency  repository.DelinquencyRepository
	TxManager    repository.TxManager
	Cache        repository.ScheduleCache
	Locker       repository.LoanLocker
	Publisher    events.Publisher
	Retry        *retry.Policy
	Observer     Observer
	Clock        Clock
	Currency     string
	Logger       *slog.Logger
}

// engine holds what the loan and delinquency services share: reading and replaying a
// loan, and running a write command against it.
type engine struct {
	Dependencies
}

func newEngine(deps Dependencies) *engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewLogPublisher(deps.Logger)
	}
	if deps.Retry == nil {
		deps.Retry = retry.New(retry.Config{MaxAttempts: 1}, deps.Logger)
	}
	if deps.Currency == "" {
		deps.Currency = "USD"
	}
	return &engine{Dependencies: deps}
}

// loanState is a loan with its feed and the state replaying it produced.
type loanState struct {
	loan         *domain.Loan
	transactions []*domain.Transaction
	charges      []*domain.Charge
	result       *processor.Result
}

func (e *engine) load(ctx context.Context, loanID string) (*loanState, error) {
	loan, err := e.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}
	return e.read(ctx, loan)
}

func (e *engine) read(ctx context.Context, loan *domain.Loan) (*loanState, error) {
	txs, err := e.Transactions.ListByLoan(ctx, loan.ID)
	if err != nil {
		return nil, dbError(err)
	}
	charges, err := e.Charges.ListByLoan(ctx, loan.ID)
	if err != nil {
		return nil, dbError(err)
	}
	result, err := e.replay(loan, txs, charges)
	if err != nil {
		return nil, err
	}
	return &loanState{loan: loan, transactions: txs, charges: charges, result: result}, nil
}

func (e *engine) replay(loan *domain.Loan, txs []*domain.Transaction, charges []*domain.Charge) (*processor.Result, error) {
	start := time.Now()
	result, err := processor.Replay(loan, txs, charges)
	e.Observer.ObserveReplay(time.Since(start))
	if err != nil {
		return nil, replayError(err)
	}
	return result, nil
}

// command collects the writes of one loan command until it is committed.
type command struct {
	*loanState
	businessDate time.Time
	created      []*domain.Transaction
	reversed     []uuid.UUID
	newCharges   []*domain.Charge
	events       []events.LoanEvent
}

func (c *command) emit(eventType events.Type, payload any) {
	c.events = append(c.events, events.New(eventType, c.loan.LoanID, payload))
}

func (c *command) transaction(id uuid.UUID) (*domain.Transaction, error) {
	for _, tx := range c.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, pkgerrors.WrapTransactionNotFound(id.String())
}

// execute runs fn against the freshly loaded loan and commits what it recorded, all
// in one database transaction under the loan lock. Retryable failures run the whole
// command again. Under an enclosing transaction the caller owns lock, retry and events.
func (e *engine) execute(ctx context.Context, loanID string, fn func(ctx context.Context, cmd *command) error) (*command, error) {
	var done *command
	err := e.Retry.ExecuteCommand(ctx, func(ctx context.Context) error {
		cmd, err := e.attempt(ctx, loanID, fn)
		if err != nil {
			return err
		}
		done = cmd
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !retry.IsEnclosingTransaction(ctx) {
		e.publish(ctx, done.events)
	}
	return done, nil
}

func (e *engine) attempt(ctx context.Context, loanID string, fn func(ctx context.Context, cmd *command) error) (*command, error) {
	if !retry.IsEnclosingTransaction(ctx) {
		unlock, err := e.lock(ctx, loanID)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	var cmd *command
	err := e.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
		state, err := e.load(ctx, loanID)
		if err != nil {
			return err
		}
		cmd = &command{loanState: state, businessDate: e.Clock.Today()}
		if err := fn(ctx, cmd); err != nil {
			return err
		}
		return e.commit(ctx, cmd)
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (e *engine) lock(ctx context.Context, loanID string) (func(), error) {
	if e.Locker == nil {
		return func() {}, nil
	}
	release, err := e.Locker.Lock(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			e.Logger.Warn("failed to release loan lock", "loan_id", loanID, "error", err)
		}
	}, nil
}

// commit replays the loan with the command's writes and stores the outcome: new and
// recomputed transactions, reversals, charges, the derived loan state and the journal.
func (e *engine) commit(ctx context.Context, cmd *command) error {
	all := append(append([]*domain.Transaction(nil), cmd.transactions...), cmd.created...)
	charges := append(append([]*domain.Charge(nil), cmd.charges...), cmd.newCharges...)
	result, err := e.replay(cmd.loan, all, charges)
	if err != nil {
		return err
	}

	replayed := make(map[uuid.UUID]*domain.Transaction, len(all))
	for _, tx := range result.Transactions() {
		replayed[tx.ID] = tx
	}

	for _, tx := range cmd.created {
		if r, ok := replayed[tx.ID]; ok {
			tx.Amount = r.Amount
			tx.SetSplits(r.Splits())
		}
		if err := e.Transactions.Create(ctx, tx); err != nil {
			return dbError(err)
		}
	}

	var changed []*domain.Transaction
	for _, tx := range cmd.transactions {
		r, ok := replayed[tx.ID]
		if !ok || tx.Reversed {
			continue
		}
		if !r.Amount.Equal(tx.Amount) || !r.Splits().Equal(tx.Splits()) {
			changed = append(changed, r)
		}
	}
	if len(changed) > 0 {
		if err := e.Transactions.UpdateComputed(ctx, changed); err != nil {
			return dbError(err)
		}
	}
	for _, id := range cmd.reversed {
		if err := e.Transactions.MarkReversed(ctx, id, cmd.businessDate); err != nil {
			return dbError(err)
		}
	}

	for _, c := range cmd.newCharges {
		if err := e.Charges.Create(ctx, c); err != nil {
			return dbError(err)
		}
	}

	loan := cmd.loan
	loan.Status = result.Status()
	loan.ChargedOff = false
	loan.ChargeOffDate = nil
	if date, chargedOff := result.ChargedOff(); chargedOff {
		loan.ChargedOff = true
		loan.ChargeOffDate = &date
	}
	loan.TotalOutstanding = result.TotalOutstanding().Amount()
	loan.OverpaidAmount = result.Overpayment().Amount()
	if err := e.Loans.Update(ctx, loan); err != nil {
		return dbError(err)
	}

	existing, err := e.Journal.ListByLoan(ctx, loan.ID)
	if err != nil {
		return dbError(err)
	}
	rec := accounting.NewJournal(loan, loan.ChargeOffDate).Reconcile(existing, result.Transactions(), cmd.businessDate)
	if !rec.IsEmpty() {
		if err := e.Journal.MarkReversed(ctx, rec.Reversed); err != nil {
			return dbError(err)
		}
		if err := e.Journal.Create(ctx, rec.Entries); err != nil {
			return dbError(err)
		}
	}

	cmd.transactions = all
	cmd.charges = charges
	cmd.result = result
	return nil
}

// publish delivers events of a committed command. The command already happened, so a
// broker failure is logged rather than returned.
func (e *engine) publish(ctx context.Context, evs []events.LoanEvent) {
	if len(evs) == 0 {
		return
	}
	if err := e.Publisher.Publish(ctx, evs...); err != nil {
		e.Logger.Error("failed to publish loan events", "count", len(evs), "error", err)
	}
}

func parseDate(field, value string) (time.Time, error) {
	date, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, pkgerrors.WrapInvalidDate(field, value)
	}
	return date, nil
}

// dbError keeps business errors raised by repositories and wraps everything else.
func dbError(err error) error {
	var be *pkgerrors.BusinessError
	if errors.As(err, &be) || errors.Is(err, pkgerrors.ErrLoanLocked) {
		return err
	}
	return pkgerrors.WrapDatabaseError(err)
}

// replayError turns a posting rule broken during replay into a rejection.
func replayError(err error) error {
	var be *pkgerrors.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return pkgerrors.WrapTransactionRejected(err, err.Error())
}
