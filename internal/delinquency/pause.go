package delinquency

import (
	"fmt"
	"sort"
	"time"

	"github.com/segyhp/loan-engine/internal/domain"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"
)

// Period is a half-open pause window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) contains(date time.Time) bool {
	return !date.Before(p.Start) && date.Before(p.End)
}

// PausePeriods folds the PAUSE and RESUME actions of a loan into effective pause
// windows. A RESUME ends the pause it falls in on its start date.
func PausePeriods(actions []domain.DelinquencyAction) []Period {
	sorted := append([]domain.DelinquencyAction(nil), actions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartDate.Equal(sorted[j].StartDate) {
			return sorted[i].StartDate.Before(sorted[j].StartDate)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var periods []Period
	for _, a := range sorted {
		switch a.Action {
		case domain.DelinquencyPause:
			if a.EndDate == nil {
				continue
			}
			periods = append(periods, Period{Start: a.StartDate, End: *a.EndDate})
		case domain.DelinquencyResume:
			for i := range periods {
				if periods[i].contains(a.StartDate) {
					periods[i].End = a.StartDate
				}
			}
		}
	}
	return periods
}

// IsPaused reports whether date falls inside a pause window.
func IsPaused(pauses []Period, date time.Time) bool {
	for _, p := range pauses {
		if p.contains(date) {
			return true
		}
	}
	return false
}

// PausedDays counts the days of [from, to) covered by pause windows.
func PausedDays(pauses []Period, from, to time.Time) int {
	days := 0
	for _, p := range pauses {
		start := utils.MaxDate(p.Start, from)
		end := utils.MinDate(p.End, to)
		if end.After(start) {
			days += utils.DaysBetween(start, end)
		}
	}
	return days
}

// ValidateAction checks a new action against the loan's existing ones.
func ValidateAction(existing []domain.DelinquencyAction, action domain.DelinquencyAction, businessDate time.Time) error {
	pauses := PausePeriods(existing)
	switch action.Action {
	case domain.DelinquencyPause:
		if action.EndDate == nil || !action.EndDate.After(action.StartDate) {
			return pkgerrors.WrapInvalidDelinquencyAction("pause end date must be after its start date")
		}
		if action.StartDate.Before(businessDate) {
			return pkgerrors.WrapInvalidDelinquencyAction(
				fmt.Sprintf("pause cannot start before business date %s", utils.FormatDate(businessDate)))
		}
		for _, p := range pauses {
			if action.StartDate.Before(p.End) && p.Start.Before(*action.EndDate) {
				return pkgerrors.WrapInvalidDelinquencyAction(
					fmt.Sprintf("pause overlaps the pause from %s to %s", utils.FormatDate(p.Start), utils.FormatDate(p.End)))
			}
		}
	case domain.DelinquencyResume:
		if action.EndDate != nil {
			return pkgerrors.WrapInvalidDelinquencyAction("resume does not take an end date")
		}
		if !action.StartDate.Equal(businessDate) {
			return pkgerrors.WrapInvalidDelinquencyAction("resume must be dated on the business date")
		}
		if !IsPaused(pauses, action.StartDate) {
			return pkgerrors.WrapInvalidDelinquencyAction("delinquency is not paused")
		}
	default:
		return pkgerrors.WrapInvalidDelinquencyAction(fmt.Sprintf("unknown action %q", action.Action))
	}
	return nil
}
