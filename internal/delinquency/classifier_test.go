package delinquency

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-engine/internal/domain"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/utils"
)

func intPtr(v int) *int { return &v }

func datePtr(t time.Time) *time.Time { return &t }

func bucket(ranges ...[2]*int) *domain.DelinquencyBucket {
	b := &domain.DelinquencyBucket{ID: uuid.New(), Name: "default"}
	for _, r := range ranges {
		b.Ranges = append(b.Ranges, domain.DelinquencyRange{
			ID:             uuid.New(),
			BucketID:       b.ID,
			Classification: fmt.Sprintf("RANGE_%d", *r[0]),
			MinDays:        *r[0],
			MaxDays:        r[1],
		})
	}
	return b
}

func pause(start, end time.Time, created int) domain.DelinquencyAction {
	return domain.DelinquencyAction{
		ID:        uuid.New(),
		Action:    domain.DelinquencyPause,
		StartDate: start,
		EndDate:   datePtr(end),
		CreatedAt: time.Date(2012, time.January, 1, 0, created, 0, 0, time.UTC),
	}
}

func resume(start time.Time, created int) domain.DelinquencyAction {
	return domain.DelinquencyAction{
		ID:        uuid.New(),
		Action:    domain.DelinquencyResume,
		StartDate: start,
		CreatedAt: time.Date(2012, time.January, 1, 0, created, 0, 0, time.UTC),
	}
}

func TestClassify_NotOverdue(t *testing.T) {
	installments := []Installment{
		{Number: 1, DueDate: utils.Date(2023, time.February, 1), Outstanding: decimal.RequireFromString("100")},
		{Number: 2, DueDate: utils.Date(2023, time.March, 1), Outstanding: decimal.Zero},
	}

	// due date itself is not overdue, paid installments never are
	result := Classify("LN-1", installments, bucket([2]*int{intPtr(1), intPtr(30)}), nil,
		utils.Date(2023, time.February, 1), false)

	assert.Nil(t, result.DelinquentDate)
	assert.Zero(t, result.DelinquentDays)
	assert.Nil(t, result.Range)
	assert.True(t, result.DelinquentAmount.IsZero())
}

func TestClassify_PauseAndResume(t *testing.T) {
	b := bucket([2]*int{intPtr(1), intPtr(3)}, [2]*int{intPtr(4), intPtr(60)})
	due := utils.Date(2012, time.February, 1)
	installments := []Installment{
		{Number: 1, DueDate: due, Outstanding: decimal.RequireFromString("1033.33")},
	}
	d := func(month time.Month, day int) time.Time { return utils.Date(2012, month, day) }

	tests := []struct {
		name         string
		actions      []domain.DelinquencyAction
		businessDate time.Time
		expectedDays int
		paused       bool
	}{
		{name: "no pause", businessDate: d(time.February, 6), expectedDays: 5},
		{
			name:         "frozen while paused",
			actions:      []domain.DelinquencyAction{pause(d(time.February, 6), d(time.March, 10), 1)},
			businessDate: d(time.February, 9),
			expectedDays: 5,
			paused:       true,
		},
		{
			name: "resumed early",
			actions: []domain.DelinquencyAction{
				pause(d(time.February, 6), d(time.March, 10), 1),
				resume(d(time.February, 10), 2),
			},
			businessDate: d(time.February, 13),
			expectedDays: 8,
		},
		{
			name: "second pause",
			actions: []domain.DelinquencyAction{
				pause(d(time.February, 6), d(time.March, 10), 1),
				resume(d(time.February, 10), 2),
				pause(d(time.February, 13), d(time.February, 18), 3),
			},
			businessDate: d(time.February, 23),
			expectedDays: 13,
		},
		{
			name: "third pause resumed early",
			actions: []domain.DelinquencyAction{
				pause(d(time.February, 6), d(time.March, 10), 1),
				resume(d(time.February, 10), 2),
				pause(d(time.February, 13), d(time.February, 18), 3),
				pause(d(time.February, 23), d(time.February, 28), 4),
				resume(d(time.February, 25), 5),
			},
			businessDate: d(time.March, 12),
			expectedDays: 29,
		},
		{
			name:         "completed pause",
			actions:      []domain.DelinquencyAction{pause(d(time.February, 6), d(time.February, 10), 1)},
			businessDate: d(time.March, 12),
			expectedDays: 36,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify("LN-1", installments, b, tt.actions, tt.businessDate, false)

			require.NotNil(t, result.DelinquentDate)
			assert.Equal(t, due, *result.DelinquentDate)
			assert.Equal(t, tt.expectedDays, result.DelinquentDays)
			assert.Equal(t, utils.DaysBetween(due, tt.businessDate), result.PastDueDays)
			assert.Equal(t, tt.paused, result.Paused)
			assert.Equal(t, "1033.33", result.DelinquentAmount.StringFixed(2))
			require.NotNil(t, result.Range)
			assert.Equal(t, 4, result.Range.MinDays)
		})
	}
}

func TestClassify_InstallmentLevel(t *testing.T) {
	b := bucket(
		[2]*int{intPtr(1), intPtr(10)},
		[2]*int{intPtr(11), intPtr(30)},
		[2]*int{intPtr(31), intPtr(60)},
		[2]*int{intPtr(61), nil},
	)
	installments := []Installment{
		{Number: 1, DueDate: utils.Date(2023, time.January, 31), Outstanding: decimal.RequireFromString("313")},
		{Number: 2, DueDate: utils.Date(2023, time.March, 2), Outstanding: decimal.RequireFromString("313")},
		{Number: 3, DueDate: utils.Date(2023, time.April, 1), Outstanding: decimal.RequireFromString("313")},
		{Number: 4, DueDate: utils.Date(2023, time.May, 1), Outstanding: decimal.RequireFromString("311")},
		{Number: 5, DueDate: utils.Date(2023, time.May, 31), Outstanding: decimal.RequireFromString("311")},
	}

	result := Classify("LN-1", installments, b, nil, utils.Date(2023, time.May, 31), true)

	assert.Equal(t, 120, result.DelinquentDays)
	assert.Equal(t, "1250.00", result.DelinquentAmount.StringFixed(2))
	require.NotNil(t, result.Range)
	assert.Equal(t, 61, result.Range.MinDays)
	assert.Nil(t, result.Range.MaxDays)

	require.Len(t, result.InstallmentLevel, 3)
	expected := []struct {
		minDays int
		amount  string
	}{
		{minDays: 11, amount: "311.00"},
		{minDays: 31, amount: "313.00"},
		{minDays: 61, amount: "626.00"},
	}
	for i, e := range expected {
		assert.Equal(t, e.minDays, result.InstallmentLevel[i].MinDays)
		assert.Equal(t, e.amount, result.InstallmentLevel[i].Amount.StringFixed(2))
	}

	disabled := Classify("LN-1", installments, b, nil, utils.Date(2023, time.May, 31), false)
	assert.Empty(t, disabled.InstallmentLevel)
}

func TestFindRange(t *testing.T) {
	b := bucket([2]*int{intPtr(31), intPtr(60)}, [2]*int{intPtr(1), intPtr(30)})

	assert.Nil(t, FindRange(b, 0))
	assert.Equal(t, 1, FindRange(b, 1).MinDays)
	assert.Equal(t, 1, FindRange(b, 30).MinDays)
	assert.Equal(t, 31, FindRange(b, 31).MinDays)
	assert.Nil(t, FindRange(b, 61))
	assert.Nil(t, FindRange(nil, 10))
}

func TestValidateAction(t *testing.T) {
	d := func(month time.Month, day int) time.Time { return utils.Date(2012, month, day) }
	existing := []domain.DelinquencyAction{pause(d(time.February, 6), d(time.March, 10), 1)}

	tests := []struct {
		name         string
		action       domain.DelinquencyAction
		businessDate time.Time
		valid        bool
	}{
		{name: "resume inside pause", action: resume(d(time.February, 10), 2), businessDate: d(time.February, 10), valid: true},
		{name: "resume not on business date", action: resume(d(time.February, 10), 2), businessDate: d(time.February, 11)},
		{name: "resume outside pause", action: resume(d(time.March, 12), 2), businessDate: d(time.March, 12)},
		{name: "overlapping pause", action: pause(d(time.March, 1), d(time.March, 20), 2), businessDate: d(time.February, 20)},
		{name: "pause after existing", action: pause(d(time.March, 10), d(time.March, 20), 2), businessDate: d(time.March, 1), valid: true},
		{name: "pause without end", action: domain.DelinquencyAction{Action: domain.DelinquencyPause, StartDate: d(time.March, 12)}, businessDate: d(time.March, 12)},
		{name: "backdated pause", action: pause(d(time.March, 12), d(time.March, 20), 2), businessDate: d(time.March, 13)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAction(existing, tt.action, tt.businessDate)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, pkgerrors.ErrInvalidDelinquencyAction), "got %v", err)
		})
	}
}

func TestChangeTag(t *testing.T) {
	b := bucket([2]*int{intPtr(1), intPtr(30)}, [2]*int{intPtr(31), nil})
	loanID := uuid.New()
	today := utils.Date(2023, time.March, 1)
	current := &domain.DelinquencyTag{ID: uuid.New(), LoanID: loanID, RangeID: b.Ranges[0].ID, AddedOn: utils.Date(2023, time.February, 2)}

	same := ChangeTag(loanID, current, &b.Ranges[0], today)
	assert.True(t, same.IsEmpty())

	moved := ChangeTag(loanID, current, &b.Ranges[1], today)
	require.NotNil(t, moved.Lift)
	require.NotNil(t, moved.Add)
	assert.Equal(t, today, *moved.Lift.LiftedOn)
	assert.Nil(t, current.LiftedOn)
	assert.Equal(t, b.Ranges[1].ID, moved.Add.RangeID)

	cured := ChangeTag(loanID, current, nil, today)
	assert.NotNil(t, cured.Lift)
	assert.Nil(t, cured.Add)

	first := ChangeTag(loanID, nil, &b.Ranges[0], today)
	assert.Nil(t, first.Lift)
	assert.NotNil(t, first.Add)

	assert.True(t, ChangeTag(loanID, nil, nil, today).IsEmpty())
}
