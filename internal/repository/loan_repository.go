package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-engine/internal/domain"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
)

const loanColumns = `id, loan_id, principal, terms, expected_disbursement_date, first_repayment_date,
	status, charged_off, charge_off_date, fraud, total_outstanding, overpaid_amount,
	version, created_at, updated_at`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		loan.ID,
		loan.LoanID,
		loan.Principal,
		loan.Terms,
		loan.ExpectedDisbursementDate,
		loan.FirstRepaymentDate,
		loan.Status,
		loan.ChargedOff,
		loan.ChargeOffDate,
		loan.Fraud,
		loan.TotalOutstanding,
		loan.OverpaidAmount,
		loan.Version,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return pkgerrors.WrapLoanAlreadyExists(loan.LoanID)
	}
	return err
}

func (r *loanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1`

	var loan domain.Loan
	err := conn(ctx, r.db).GetContext(ctx, &loan, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET status = $3, charged_off = $4, charge_off_date = $5, fraud = $6,
		    total_outstanding = $7, overpaid_amount = $8, version = version + 1, updated_at = $9
		WHERE id = $1 AND version = $2
	`

	now := time.Now()
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		loan.ID,
		loan.Version,
		loan.Status,
		loan.ChargedOff,
		loan.ChargeOffDate,
		loan.Fraud,
		loan.TotalOutstanding,
		loan.OverpaidAmount,
		now,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.WrapConcurrentModification(loan.LoanID)
	}

	loan.Version++
	loan.UpdatedAt = now
	return nil
}

func (r *loanRepository) ListOpenLoanIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT loan_id
		FROM loans
		WHERE status IN ($1, $2)
		ORDER BY created_at
	`

	var ids []string
	err := conn(ctx, r.db).SelectContext(ctx, &ids, query, domain.LoanStatusActive, domain.LoanStatusOverpaid)
	if err != nil {
		return nil, err
	}

	return ids, nil
}
