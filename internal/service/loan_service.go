package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/events"
	"github.com/segyhp/loan-engine/internal/processor"
	"github.com/segyhp/loan-engine/internal/retry"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"
)

type LoanService struct {
	*engine
}

func NewLoanService(deps Dependencies) *LoanService {
	return &LoanService{engine: newEngine(deps)}
}

// newLoan builds an approved loan from a request and validates its terms.
func (s *LoanService) newLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	disbursementDate, err := parseDate("expected_disbursement_date", request.ExpectedDisbursementDate)
	if err != nil {
		return nil, err
	}
	firstRepaymentDate, err := parseDate("first_repayment_date", request.FirstRepaymentDate)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	loan := &domain.Loan{
		ID:                       uuid.New(),
		LoanID:                   request.LoanID,
		Principal:                request.Principal,
		Terms:                    request.Terms(),
		ExpectedDisbursementDate: disbursementDate,
		FirstRepaymentDate:       firstRepaymentDate,
		Status:                   domain.LoanStatusApproved,
		TotalOutstanding:         decimal.Zero,
		OverpaidAmount:           decimal.Zero,
		Version:                  1,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	loan.Terms.ApplyDefaults(s.Currency)

	if err := processor.ValidateLoan(loan); err != nil {
		return nil, err
	}
	if id := loan.Terms.DelinquencyBucketID; id != nil {
		if _, err := s.Delinquency.GetBucket(ctx, *id); err != nil {
			return nil, dbError(err)
		}
	}
	return loan, nil
}

// CreateLoan approves a loan and returns the schedule expected for it
func (s *LoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	loan, err := s.newLoan(ctx, request)
	if err != nil {
		return nil, err
	}

	preview, err := processor.Preview(loan)
	if err != nil {
		return nil, replayError(err)
	}

	if err := s.Loans.Create(ctx, loan); err != nil {
		return nil, dbError(err)
	}
	s.Logger.Info("loan created", "loan_id", loan.LoanID, "principal", loan.Principal.String())
	s.publish(ctx, []events.LoanEvent{events.New(events.LoanCreated, loan.LoanID, loan)})

	return &domain.CreateLoanResponse{
		Loan:     loan,
		Schedule: processor.ScheduleView(loan.LoanID, preview, s.Clock.Today()),
	}, nil
}

// PreviewSchedule renders the schedule of a loan request without storing anything.
func (s *LoanService) PreviewSchedule(ctx context.Context, request *domain.CreateLoanRequest) (*domain.RepaymentSchedule, error) {
	loan, err := s.newLoan(ctx, request)
	if err != nil {
		return nil, err
	}
	preview, err := processor.Preview(loan)
	if err != nil {
		return nil, replayError(err)
	}
	return processor.ScheduleView(loan.LoanID, preview, s.Clock.Today()), nil
}

// GetLoan returns the balances of a loan on the business date
func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*domain.LoanSummary, error) {
	state, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}

	businessDate := s.Clock.Today()
	r := state.result
	return &domain.LoanSummary{
		Loan:                 state.loan,
		BusinessDate:         utils.FormatDate(businessDate),
		PrincipalDisbursed:   r.Disbursed().Amount(),
		PrincipalOutstanding: r.PrincipalOutstanding().Amount(),
		InterestOutstanding:  r.InterestOutstanding().Amount(),
		FeeOutstanding:       r.FeeOutstanding().Amount(),
		PenaltyOutstanding:   r.PenaltyOutstanding().Amount(),
		TotalOutstanding:     r.TotalOutstanding().Amount(),
		TotalOverdue:         r.TotalOverdue(businessDate).Amount(),
		OverpaidAmount:       r.Overpayment().Amount(),
	}, nil
}

// GetSchedule returns the schedule view of a loan. Views are cached per loan version
// and business date; cache failures only cost a replay.
func (s *LoanService) GetSchedule(ctx context.Context, loanID string) (*domain.RepaymentSchedule, error) {
	loan, err := s.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}
	businessDate := s.Clock.Today()

	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, loan.LoanID, loan.Version, businessDate)
		if err != nil {
			s.Logger.Warn("schedule cache read failed", "loan_id", loanID, "error", err)
		}
		s.Observer.ObserveCacheLookup(cached != nil)
		if cached != nil {
			return cached, nil
		}
	}

	state, err := s.read(ctx, loan)
	if err != nil {
		return nil, err
	}
	view := processor.ScheduleView(loan.LoanID, state.result, businessDate)

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, view, loan.Version, businessDate); err != nil {
			s.Logger.Warn("schedule cache write failed", "loan_id", loanID, "error", err)
		}
	}
	return view, nil
}

// PostTransaction appends a transaction to the loan feed and replays the loan.
func (s *LoanService) PostTransaction(ctx context.Context, loanID string, request *domain.PostTransactionRequest) (*domain.Transaction, error) {
	date, err := parseDate("transaction_date", request.TransactionDate)
	if err != nil {
		return nil, err
	}

	var posted *domain.Transaction
	_, err = s.execute(ctx, loanID, func(ctx context.Context, cmd *command) error {
		tx, err := buildTransaction(cmd, request, date)
		posted = tx
		return err
	})
	s.Observer.ObserveTransaction(string(request.Type), err)
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// ExecuteBatch posts transactions in order as one unit: all of them are stored or none.
// A conflict on any of them restarts the whole batch.
func (s *LoanService) ExecuteBatch(ctx context.Context, loanID string, request *domain.BatchTransactionRequest) ([]*domain.Transaction, error) {
	dates := make([]time.Time, len(request.Transactions))
	for i, item := range request.Transactions {
		date, err := parseDate("transaction_date", item.TransactionDate)
		if err != nil {
			return nil, &retry.BatchError{Index: i, Err: err}
		}
		dates[i] = date
	}

	var (
		posted    []*domain.Transaction
		collected []events.LoanEvent
	)
	err := s.Retry.ExecuteBatch(ctx, func(ctx context.Context) error {
		posted, collected = nil, nil

		unlock, err := s.lock(ctx, loanID)
		if err != nil {
			return &retry.BatchError{Index: 0, Err: err}
		}
		defer unlock()

		return s.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
			for i := range request.Transactions {
				item := &request.Transactions[i]
				var tx *domain.Transaction
				cmd, err := s.execute(ctx, loanID, func(ctx context.Context, cmd *command) error {
					var err error
					tx, err = buildTransaction(cmd, item, dates[i])
					return err
				})
				s.Observer.ObserveTransaction(string(item.Type), err)
				if err != nil {
					return &retry.BatchError{Index: i, Err: err}
				}
				posted = append(posted, tx)
				collected = append(collected, cmd.events...)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, collected)
	return posted, nil
}

// buildTransaction validates a posting against the command state and records it.
func buildTransaction(cmd *command, request *domain.PostTransactionRequest, date time.Time) (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:              uuid.New(),
		LoanID:          cmd.loan.ID,
		ExternalID:      externalID(request.ExternalID),
		Type:            request.Type,
		TransactionDate: date,
		Amount:          request.Amount,
		CreatedAt:       time.Now().UTC(),
	}
	if err := processor.ValidateTransaction(cmd.loan, cmd.result, tx, cmd.businessDate); err != nil {
		return nil, err
	}
	cmd.created = append(cmd.created, tx)

	eventType := events.TransactionPosted
	if tx.Type == domain.TxChargeOff {
		eventType = events.LoanChargedOff
	}
	cmd.emit(eventType, tx)
	return tx, nil
}

// Chargeback reverses part or all of a repayment-like transaction received earlier.
func (s *LoanService) Chargeback(ctx context.Context, loanID string, txID uuid.UUID, request *domain.ChargebackRequest) (*domain.Transaction, error) {
	date, err := parseDate("transaction_date", request.TransactionDate)
	if err != nil {
		return nil, err
	}

	var chargeback *domain.Transaction
	_, err = s.execute(ctx, loanID, func(ctx context.Context, cmd *command) error {
		original, err := cmd.transaction(txID)
		if err != nil {
			return err
		}
		cb := &domain.Transaction{
			ID:                    uuid.New(),
			LoanID:                cmd.loan.ID,
			ExternalID:            externalID(request.ExternalID),
			Type:                  domain.TxChargeback,
			TransactionDate:       date,
			Amount:                request.Amount,
			OriginalTransactionID: &original.ID,
			CreatedAt:             time.Now().UTC(),
		}
		if err := processor.ValidateChargeback(cmd.result, original, cb, cmd.businessDate); err != nil {
			return err
		}
		cmd.created = append(cmd.created, cb)
		cmd.emit(events.ChargebackPosted, cb)
		chargeback = cb
		return nil
	})
	s.Observer.ObserveTransaction(string(domain.TxChargeback), err)
	if err != nil {
		return nil, err
	}
	return chargeback, nil
}

// ReverseTransaction marks a transaction reversed and replays the loan without it.
func (s *LoanService) ReverseTransaction(ctx context.Context, loanID string, txID uuid.UUID) (*domain.Transaction, error) {
	var reversed *domain.Transaction
	_, err := s.execute(ctx, loanID, func(ctx context.Context, cmd *command) error {
		tx, err := cmd.transaction(txID)
		if err != nil {
			return err
		}
		if err := validateReversal(cmd, tx); err != nil {
			return err
		}

		reversedOn := cmd.businessDate
		tx.Reversed = true
		tx.ReversedOn = &reversedOn
		cmd.reversed = append(cmd.reversed, tx.ID)
		cmd.emit(events.TransactionReversed, tx)
		reversed = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reversed, nil
}

func validateReversal(cmd *command, tx *domain.Transaction) error {
	if tx.Reversed {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrTransactionAlreadyReversed,
			fmt.Sprintf("transaction %s is already reversed", tx.ID))
	}
	for _, other := range cmd.transactions {
		if other.Reversed || other.ID == tx.ID {
			continue
		}
		if other.OriginalTransactionID != nil && *other.OriginalTransactionID == tx.ID {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrReversalNotAllowed,
				fmt.Sprintf("transaction %s has chargeback %s", tx.ID, other.ID))
		}
		if tx.Type == domain.TxDisbursement && other.Type != domain.TxDisbursement {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrReversalNotAllowed,
				fmt.Sprintf("disbursement %s is followed by %s %s", tx.ID, other.Type, other.ID))
		}
	}
	return nil
}

// AddCharge books a fee or penalty due on a date.
func (s *LoanService) AddCharge(ctx context.Context, loanID string, request *domain.AddChargeRequest) (*domain.Charge, error) {
	dueDate, err := parseDate("due_date", request.DueDate)
	if err != nil {
		return nil, err
	}

	var charge *domain.Charge
	_, err = s.execute(ctx, loanID, func(ctx context.Context, cmd *command) error {
		if cmd.loan.Status == domain.LoanStatusClosedObligationsMet {
			return pkgerrors.WrapLoanNotActive(cmd.loan.LoanID, cmd.loan.Status)
		}
		charge = &domain.Charge{
			ID:        uuid.New(),
			LoanID:    cmd.loan.ID,
			Name:      request.Name,
			Type:      request.Type,
			Amount:    request.Amount,
			DueDate:   dueDate,
			CreatedAt: time.Now().UTC(),
		}
		cmd.newCharges = append(cmd.newCharges, charge)
		cmd.emit(events.ChargeAdded, charge)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return charge, nil
}

// SetFraud flags or unflags a loan as fraudulent. A charged-off loan moves its
// charge-off postings to the matching expense account.
func (s *LoanService) SetFraud(ctx context.Context, loanID string, fraud bool) (*domain.Loan, error) {
	cmd, err := s.execute(ctx, loanID, func(ctx context.Context, cmd *command) error {
		if cmd.loan.Status == domain.LoanStatusClosedObligationsMet {
			return pkgerrors.WrapLoanNotActive(cmd.loan.LoanID, cmd.loan.Status)
		}
		cmd.loan.Fraud = fraud
		cmd.emit(events.LoanFraudUpdated, map[string]bool{"fraud": fraud})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd.loan, nil
}

// ListJournalEntries returns every accounting entry of a loan, reversals included.
func (s *LoanService) ListJournalEntries(ctx context.Context, loanID string) ([]*domain.JournalEntry, error) {
	loan, err := s.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, dbError(err)
	}
	entries, err := s.Journal.ListByLoan(ctx, loan.ID)
	if err != nil {
		return nil, dbError(err)
	}
	return entries, nil
}

func externalID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
