package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-engine/internal/domain"
)

type chargeRepository struct {
	db *sqlx.DB
}

func NewChargeRepository(db *sqlx.DB) ChargeRepository {
	return &chargeRepository{db: db}
}

func (r *chargeRepository) Create(ctx context.Context, charge *domain.Charge) error {
	query := `
		INSERT INTO loan_charges (id, loan_id, name, type, amount, due_date, created_at)
		VALUES (:id, :loan_id, :name, :type, :amount, :due_date, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, charge)
	return err
}

func (r *chargeRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Charge, error) {
	query := `
		SELECT id, loan_id, name, type, amount, due_date, created_at
		FROM loan_charges
		WHERE loan_id = $1
		ORDER BY due_date, created_at
	`

	var charges []*domain.Charge
	if err := conn(ctx, r.db).SelectContext(ctx, &charges, query, loanID); err != nil {
		return nil, err
	}

	return charges, nil
}
