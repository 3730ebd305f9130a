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

type delinquencyRepository struct {
	db *sqlx.DB
}

func NewDelinquencyRepository(db *sqlx.DB) DelinquencyRepository {
	return &delinquencyRepository{db: db}
}

func (r *delinquencyRepository) CreateBucket(ctx context.Context, bucket *domain.DelinquencyBucket) error {
	q := conn(ctx, r.db)

	_, err := q.ExecContext(ctx,
		`INSERT INTO delinquency_buckets (id, name, created_at) VALUES ($1, $2, $3)`,
		bucket.ID, bucket.Name, bucket.CreatedAt)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO delinquency_ranges (id, bucket_id, classification, min_days, max_days)
		VALUES (:id, :bucket_id, :classification, :min_days, :max_days)
	`
	for i := range bucket.Ranges {
		if _, err := sqlx.NamedExecContext(ctx, q, query, &bucket.Ranges[i]); err != nil {
			return err
		}
	}

	return nil
}

func (r *delinquencyRepository) GetBucket(ctx context.Context, id uuid.UUID) (*domain.DelinquencyBucket, error) {
	q := conn(ctx, r.db)

	var bucket domain.DelinquencyBucket
	err := q.GetContext(ctx, &bucket, `SELECT id, name, created_at FROM delinquency_buckets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.WrapBucketNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, bucket_id, classification, min_days, max_days
		FROM delinquency_ranges
		WHERE bucket_id = $1
		ORDER BY min_days
	`
	if err := q.SelectContext(ctx, &bucket.Ranges, query, id); err != nil {
		return nil, err
	}

	return &bucket, nil
}

func (r *delinquencyRepository) CreateAction(ctx context.Context, action *domain.DelinquencyAction) error {
	query := `
		INSERT INTO delinquency_actions (id, loan_id, action, start_date, end_date, created_at)
		VALUES (:id, :loan_id, :action, :start_date, :end_date, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, action)
	return err
}

func (r *delinquencyRepository) ListActions(ctx context.Context, loanID uuid.UUID) ([]domain.DelinquencyAction, error) {
	query := `
		SELECT id, loan_id, action, start_date, end_date, created_at
		FROM delinquency_actions
		WHERE loan_id = $1
		ORDER BY start_date, created_at
	`

	var actions []domain.DelinquencyAction
	if err := conn(ctx, r.db).SelectContext(ctx, &actions, query, loanID); err != nil {
		return nil, err
	}

	return actions, nil
}

func (r *delinquencyRepository) ActiveTag(ctx context.Context, loanID uuid.UUID) (*domain.DelinquencyTag, error) {
	query := `
		SELECT id, loan_id, range_id, added_on, lifted_on
		FROM delinquency_tags
		WHERE loan_id = $1 AND lifted_on IS NULL
	`

	var tag domain.DelinquencyTag
	err := conn(ctx, r.db).GetContext(ctx, &tag, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &tag, nil
}

func (r *delinquencyRepository) LiftTag(ctx context.Context, id uuid.UUID, liftedOn time.Time) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE delinquency_tags SET lifted_on = $2 WHERE id = $1 AND lifted_on IS NULL`, id, liftedOn)
	return err
}

func (r *delinquencyRepository) AddTag(ctx context.Context, tag *domain.DelinquencyTag) error {
	query := `
		INSERT INTO delinquency_tags (id, loan_id, range_id, added_on, lifted_on)
		VALUES (:id, :loan_id, :range_id, :added_on, :lifted_on)
	`

	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, tag)
	return err
}

func (r *delinquencyRepository) ListTags(ctx context.Context, loanID uuid.UUID) ([]*domain.DelinquencyTag, error) {
	query := `
		SELECT id, loan_id, range_id, added_on, lifted_on
		FROM delinquency_tags
		WHERE loan_id = $1
		ORDER BY added_on
	`

	var tags []*domain.DelinquencyTag
	if err := conn(ctx, r.db).SelectContext(ctx, &tags, query, loanID); err != nil {
		return nil, err
	}

	return tags, nil
}
