package delinquency

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// Installment is what the classifier needs to know about one repayment installment.
type Installment struct {
	Number      int
	DueDate     time.Time
	Outstanding decimal.Decimal
}

// Classify computes the loan-level and, when enabled, installment-level delinquency of
// a loan on businessDate. Days past due count from the oldest overdue due date, minus
// the days delinquency was paused.
func Classify(loanID string, installments []Installment, bucket *domain.DelinquencyBucket,
	actions []domain.DelinquencyAction, businessDate time.Time, installmentLevel bool) domain.LoanDelinquency {

	pauses := PausePeriods(actions)
	result := domain.LoanDelinquency{
		LoanID:           loanID,
		BusinessDate:     utils.FormatDate(businessDate),
		DelinquentAmount: decimal.Zero,
		Paused:           IsPaused(pauses, businessDate),
		Actions:          actions,
	}

	overdue := Overdue(installments, businessDate)
	if len(overdue) == 0 {
		return result
	}

	oldest := overdue[0].DueDate
	result.DelinquentDate = &oldest
	result.PastDueDays = utils.DaysBetween(oldest, businessDate)
	result.DelinquentDays = DelinquentDays(pauses, oldest, businessDate)
	for _, inst := range overdue {
		result.DelinquentAmount = result.DelinquentAmount.Add(inst.Outstanding)
	}
	result.Range = FindRange(bucket, result.DelinquentDays)

	if installmentLevel && bucket != nil {
		result.InstallmentLevel = groupByRange(overdue, bucket, pauses, businessDate)
	}
	return result
}

// Overdue returns the installments due before businessDate with money owed, oldest first.
func Overdue(installments []Installment, businessDate time.Time) []Installment {
	var overdue []Installment
	for _, inst := range installments {
		if inst.DueDate.Before(businessDate) && inst.Outstanding.IsPositive() {
			overdue = append(overdue, inst)
		}
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].DueDate.Before(overdue[j].DueDate)
	})
	return overdue
}

// DelinquentDays is the number of days from dueDate to businessDate outside any pause.
func DelinquentDays(pauses []Period, dueDate, businessDate time.Time) int {
	days := utils.DaysBetween(dueDate, businessDate) - PausedDays(pauses, dueDate, businessDate)
	if days < 0 {
		return 0
	}
	return days
}

// FindRange returns the range of bucket that days falls in. Zero days is never delinquent.
func FindRange(bucket *domain.DelinquencyBucket, days int) *domain.DelinquencyRange {
	if bucket == nil || days <= 0 {
		return nil
	}
	ranges := append([]domain.DelinquencyRange(nil), bucket.Ranges...)
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].MinDays < ranges[j].MinDays })
	for i := range ranges {
		if ranges[i].Contains(days) {
			r := ranges[i]
			return &r
		}
	}
	return nil
}

func groupByRange(overdue []Installment, bucket *domain.DelinquencyBucket, pauses []Period, businessDate time.Time) []domain.InstallmentDelinquency {
	var groups []domain.InstallmentDelinquency
	index := make(map[string]int)
	for _, inst := range overdue {
		r := FindRange(bucket, DelinquentDays(pauses, inst.DueDate, businessDate))
		if r == nil {
			continue
		}
		key := r.ID.String()
		if i, ok := index[key]; ok {
			groups[i].Amount = groups[i].Amount.Add(inst.Outstanding)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, domain.InstallmentDelinquency{
			RangeID:        r.ID,
			Classification: r.Classification,
			MinDays:        r.MinDays,
			MaxDays:        r.MaxDays,
			Amount:         inst.Outstanding,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].MinDays < groups[j].MinDays })
	return groups
}
