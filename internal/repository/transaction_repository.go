package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-engine/internal/domain"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
)

const transactionColumns = `id, loan_id, external_id, type, transaction_date, amount,
	principal_portion, interest_portion, fee_portion, penalty_portion, overpayment_portion,
	original_transaction_id, reversed, reversed_on, created_at`

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO loan_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		tx.ID,
		tx.LoanID,
		tx.ExternalID,
		tx.Type,
		tx.TransactionDate,
		tx.Amount,
		tx.PrincipalPortion,
		tx.InterestPortion,
		tx.FeePortion,
		tx.PenaltyPortion,
		tx.OverpaymentPortion,
		tx.OriginalTransactionID,
		tx.Reversed,
		tx.ReversedOn,
		tx.CreatedAt,
	)
	if isUniqueViolation(err) {
		return pkgerrors.WrapDuplicateExternalID(tx.ExternalID)
	}
	return err
}

func (r *transactionRepository) GetByID(ctx context.Context, loanID, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM loan_transactions WHERE loan_id = $1 AND id = $2`

	var tx domain.Transaction
	err := conn(ctx, r.db).GetContext(ctx, &tx, query, loanID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.WrapTransactionNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}

	return &tx, nil
}

func (r *transactionRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM loan_transactions
		WHERE loan_id = $1
		ORDER BY transaction_date, created_at
	`

	var txs []*domain.Transaction
	if err := conn(ctx, r.db).SelectContext(ctx, &txs, query, loanID); err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *transactionRepository) UpdateComputed(ctx context.Context, txs []*domain.Transaction) error {
	query := `
		UPDATE loan_transactions
		SET amount = $2, principal_portion = $3, interest_portion = $4, fee_portion = $5,
		    penalty_portion = $6, overpayment_portion = $7
		WHERE id = $1
	`

	q := conn(ctx, r.db)
	for _, tx := range txs {
		_, err := q.ExecContext(ctx, query,
			tx.ID,
			tx.Amount,
			tx.PrincipalPortion,
			tx.InterestPortion,
			tx.FeePortion,
			tx.PenaltyPortion,
			tx.OverpaymentPortion,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *transactionRepository) MarkReversed(ctx context.Context, id uuid.UUID, reversedOn time.Time) error {
	query := `
		UPDATE loan_transactions
		SET reversed = TRUE, reversed_on = $2
		WHERE id = $1 AND reversed = FALSE
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, reversedOn)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.WrapTransactionRejected(pkgerrors.ErrTransactionAlreadyReversed, id.String())
	}

	return nil
}
