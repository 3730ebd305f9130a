package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/loan-engine/internal/domain"
)

type journalRepository struct {
	db *sqlx.DB
}

func NewJournalRepository(db *sqlx.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Create(ctx context.Context, entries []*domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO journal_entries (id, loan_id, transaction_id, account, type, amount, currency,
		                             entry_date, reversal, reversed, created_at)
		VALUES (:id, :loan_id, :transaction_id, :account, :type, :amount, :currency,
		        :entry_date, :reversal, :reversed, :created_at)
	`

	q := conn(ctx, r.db)
	for _, e := range entries {
		if _, err := sqlx.NamedExecContext(ctx, q, query, e); err != nil {
			return err
		}
	}

	return nil
}

func (r *journalRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.JournalEntry, error) {
	query := `
		SELECT id, loan_id, transaction_id, account, type, amount, currency,
		       entry_date, reversal, reversed, created_at
		FROM journal_entries
		WHERE loan_id = $1
		ORDER BY created_at, entry_date
	`

	var entries []*domain.JournalEntry
	if err := conn(ctx, r.db).SelectContext(ctx, &entries, query, loanID); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *journalRepository) MarkReversed(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query := `UPDATE journal_entries SET reversed = TRUE WHERE id = ANY($1::uuid[])`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, pq.Array(keys))
	return err
}
