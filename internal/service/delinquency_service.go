package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/loan-engine/internal/delinquency"
	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/events"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// NotDelinquent labels loans that fall in no range in COB reports.
const NotDelinquent = "NOT_DELINQUENT"

type DelinquencyService struct {
	*engine
}

func NewDelinquencyService(deps Dependencies) *DelinquencyService {
	return &DelinquencyService{engine: newEngine(deps)}
}

// CreateBucket stores a bucket after checking its ranges tile the day axis without
// overlapping.
func (s *DelinquencyService) CreateBucket(ctx context.Context, request *domain.CreateBucketRequest) (*domain.DelinquencyBucket, error) {
	bucket := &domain.DelinquencyBucket{
		ID:        uuid.New(),
		Name:      request.Name,
		CreatedAt: time.Now().UTC(),
	}
	for _, r := range request.Ranges {
		bucket.Ranges = append(bucket.Ranges, domain.DelinquencyRange{
			ID:             uuid.New(),
			BucketID:       bucket.ID,
			Classification: r.Classification,
			MinDays:        r.MinDays,
			MaxDays:        r.MaxDays,
		})
	}
	if err := validateRanges(bucket.Ranges); err != nil {
		return nil, err
	}

	err := s.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
		return s.Delinquency.CreateBucket(ctx, bucket)
	})
	if err != nil {
		return nil, dbError(err)
	}
	return bucket, nil
}

func validateRanges(ranges []domain.DelinquencyRange) error {
	sorted := append([]domain.DelinquencyRange(nil), ranges...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinDays < sorted[j].MinDays })

	seen := make(map[string]bool, len(sorted))
	for i, r := range sorted {
		if r.MinDays < 1 {
			return pkgerrors.WrapInvalidBucket(fmt.Sprintf("range %s starts before day 1", r.Classification))
		}
		if r.MaxDays != nil && *r.MaxDays < r.MinDays {
			return pkgerrors.WrapInvalidBucket(fmt.Sprintf("range %s ends before it starts", r.Classification))
		}
		if seen[r.Classification] {
			return pkgerrors.WrapInvalidBucket(fmt.Sprintf("classification %s is used twice", r.Classification))
		}
		seen[r.Classification] = true

		if i == len(sorted)-1 {
			continue
		}
		if r.MaxDays == nil {
			return pkgerrors.WrapInvalidBucket(fmt.Sprintf("only the last range may be open ended, %s is not last", r.Classification))
		}
		if next := sorted[i+1]; next.MinDays <= *r.MaxDays {
			return pkgerrors.WrapInvalidBucket(fmt.Sprintf("ranges %s and %s overlap", r.Classification, next.Classification))
		}
	}
	return nil
}

func (s *DelinquencyService) GetBucket(ctx context.Context, id uuid.UUID) (*domain.DelinquencyBucket, error) {
	bucket, err := s.Delinquency.GetBucket(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}
	return bucket, nil
}

// GetLoanDelinquency classifies a loan on the business date.
func (s *DelinquencyService) GetLoanDelinquency(ctx context.Context, loanID string) (*domain.LoanDelinquency, error) {
	state, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	result, err := s.classify(ctx, state, s.Clock.Today())
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *DelinquencyService) classify(ctx context.Context, state *loanState, businessDate time.Time) (domain.LoanDelinquency, error) {
	var bucket *domain.DelinquencyBucket
	if id := state.loan.Terms.DelinquencyBucketID; id != nil {
		b, err := s.Delinquency.GetBucket(ctx, *id)
		if err != nil {
			return domain.LoanDelinquency{}, dbError(err)
		}
		bucket = b
	}
	actions, err := s.Delinquency.ListActions(ctx, state.loan.ID)
	if err != nil {
		return domain.LoanDelinquency{}, dbError(err)
	}

	installments := make([]delinquency.Installment, 0, len(state.result.Installments()))
	for _, inst := range state.result.Installments() {
		installments = append(installments, delinquency.Installment{
			Number:      inst.Number(),
			DueDate:     inst.DueDate(),
			Outstanding: inst.TotalOutstanding().Amount(),
		})
	}

	return delinquency.Classify(state.loan.LoanID, installments, bucket, actions, businessDate,
		state.loan.Terms.EnableInstallmentLevelDelinquency), nil
}

// AddAction pauses or resumes delinquency counting of a disbursed loan.
func (s *DelinquencyService) AddAction(ctx context.Context, loanID string, request *domain.DelinquencyActionRequest) (*domain.DelinquencyAction, error) {
	startDate, err := parseDate("start_date", request.StartDate)
	if err != nil {
		return nil, err
	}
	action := &domain.DelinquencyAction{
		ID:        uuid.New(),
		Action:    request.Action,
		StartDate: startDate,
		CreatedAt: time.Now().UTC(),
	}
	if request.EndDate != "" {
		endDate, err := parseDate("end_date", request.EndDate)
		if err != nil {
			return nil, err
		}
		action.EndDate = &endDate
	}

	_, err = s.execute(ctx, loanID, func(ctx context.Context, cmd *command) error {
		if !cmd.result.Disbursed().IsPositive() {
			return pkgerrors.WrapTransactionRejected(pkgerrors.ErrLoanNotDisbursed, "loan has not been disbursed")
		}
		existing, err := s.Delinquency.ListActions(ctx, cmd.loan.ID)
		if err != nil {
			return dbError(err)
		}
		action.LoanID = cmd.loan.ID
		if err := delinquency.ValidateAction(existing, *action, cmd.businessDate); err != nil {
			return err
		}
		if err := s.Delinquency.CreateAction(ctx, action); err != nil {
			return dbError(err)
		}
		cmd.emit(events.DelinquencyAction, action)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

// COBReport summarises one close-of-business run.
type COBReport struct {
	BusinessDate    string         `json:"business_date"`
	Processed       int            `json:"processed"`
	Failed          int            `json:"failed"`
	Classifications map[string]int `json:"classifications"`
}

// RunCOB re-classifies every open loan on the business date and updates the tag history
// of those whose range moved. A loan failing does not stop the run.
func (s *DelinquencyService) RunCOB(ctx context.Context) (*COBReport, error) {
	start := time.Now()
	businessDate := s.Clock.Today()

	ids, err := s.Loans.ListOpenLoanIDs(ctx)
	if err != nil {
		return nil, dbError(err)
	}

	report := &COBReport{
		BusinessDate:    utils.FormatDate(businessDate),
		Classifications: make(map[string]int),
	}
	for _, loanID := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		classification, err := s.closeOfBusiness(ctx, loanID, businessDate)
		if err != nil {
			report.Failed++
			s.Logger.Error("close of business failed", "loan_id", loanID, "error", err)
			continue
		}
		report.Processed++
		report.Classifications[classification]++
	}

	s.Observer.ObserveCOB(time.Since(start), report.Failed, report.Classifications)
	s.Logger.Info("close of business finished",
		"business_date", report.BusinessDate,
		"processed", report.Processed,
		"failed", report.Failed,
		"duration", time.Since(start))
	return report, nil
}

func (s *DelinquencyService) closeOfBusiness(ctx context.Context, loanID string, businessDate time.Time) (string, error) {
	classification := NotDelinquent
	var evs []events.LoanEvent

	err := s.TxManager.WithTransaction(ctx, func(ctx context.Context) error {
		state, err := s.load(ctx, loanID)
		if err != nil {
			return err
		}
		result, err := s.classify(ctx, state, businessDate)
		if err != nil {
			return err
		}
		if result.Range != nil {
			classification = result.Range.Classification
		}

		current, err := s.Delinquency.ActiveTag(ctx, state.loan.ID)
		if err != nil {
			return dbError(err)
		}
		change := delinquency.ChangeTag(state.loan.ID, current, result.Range, businessDate)
		if change.IsEmpty() {
			return nil
		}
		if change.Lift != nil {
			if err := s.Delinquency.LiftTag(ctx, change.Lift.ID, *change.Lift.LiftedOn); err != nil {
				return dbError(err)
			}
		}
		if change.Add != nil {
			if err := s.Delinquency.AddTag(ctx, change.Add); err != nil {
				return dbError(err)
			}
		}
		evs = append(evs, events.New(events.DelinquencyClassified, loanID, result))
		return nil
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, evs)
	return classification, nil
}
