package delinquency

import (
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/loan-engine/internal/domain"
)

// TagChange is the history update for a loan whose classification moved.
type TagChange struct {
	Lift *domain.DelinquencyTag
	Add  *domain.DelinquencyTag
}

func (c TagChange) IsEmpty() bool {
	return c.Lift == nil && c.Add == nil
}

// ChangeTag compares the loan's active tag with the range it classifies into today.
// The active tag is lifted and a new one added only when the range differs.
func ChangeTag(loanID uuid.UUID, current *domain.DelinquencyTag, rng *domain.DelinquencyRange, businessDate time.Time) TagChange {
	var change TagChange
	if current != nil && rng != nil && current.RangeID == rng.ID {
		return change
	}
	if current != nil {
		lifted := *current
		liftedOn := businessDate
		lifted.LiftedOn = &liftedOn
		change.Lift = &lifted
	}
	if rng != nil {
		change.Add = &domain.DelinquencyTag{
			ID:      uuid.New(),
			LoanID:  loanID,
			RangeID: rng.ID,
			AddedOn: businessDate,
		}
	}
	return change
}
