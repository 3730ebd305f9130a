package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_NeighboursByIndex(t *testing.T) {
	model := New(usd("0"))
	first := model.AppendPeriod(day(time.January, 1), day(time.February, 1), usd("10"))
	second := model.AppendPeriod(day(time.February, 1), day(time.March, 1), usd("10"))
	third := model.AppendPeriod(day(time.March, 1), day(time.April, 1), usd("10"))

	prev, ok := second.Previous()
	require.True(t, ok)
	assert.Same(t, first, prev)

	next, ok := second.Next()
	require.True(t, ok)
	assert.Same(t, third, next)

	_, ok = first.Previous()
	assert.False(t, ok)
	assert.True(t, third.IsLastPeriod())
	assert.False(t, first.IsLastPeriod())
	assert.Equal(t, 3, third.Number())
	assert.Equal(t, day(time.April, 1), model.MaturityDate())
}

func TestSchedule_FindPeriodFor(t *testing.T) {
	model := New(usd("0"))
	first := model.AppendPeriod(day(time.January, 1), day(time.February, 1), usd("0"))
	last := model.AppendPeriod(day(time.February, 1), day(time.March, 1), usd("0"))

	tests := []struct {
		name     string
		date     time.Time
		expected *RepaymentPeriod
	}{
		{name: "from date", date: day(time.January, 1), expected: first},
		{name: "inside", date: day(time.January, 20), expected: first},
		{name: "due date belongs to next period", date: day(time.February, 1), expected: last},
		{name: "maturity belongs to last period", date: day(time.March, 1), expected: last},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp, ok := model.FindPeriodFor(tt.date)
			require.True(t, ok)
			assert.Same(t, tt.expected, rp)
		})
	}

	_, ok := model.FindPeriodFor(day(time.March, 2))
	assert.False(t, ok)
	_, ok = model.FindPeriodFor(day(time.January, 1).AddDate(0, 0, -1))
	assert.False(t, ok)
}

func TestSchedule_FindInterestPeriodForSplitsAndClamps(t *testing.T) {
	model := New(usd("0"))
	first := model.AppendPeriod(day(time.January, 1), day(time.February, 1), usd("0"))
	last := model.AppendPeriod(day(time.February, 1), day(time.March, 1), usd("0"))

	ip := model.FindInterestPeriodFor(day(time.January, 10))
	assert.Equal(t, day(time.January, 10), ip.FromDate())
	assert.Equal(t, day(time.February, 1), ip.DueDate())
	require.Len(t, first.InterestPeriods(), 2)
	assert.Equal(t, day(time.January, 10), first.InterestPeriods()[0].DueDate())

	// same date again reuses the split
	assert.Same(t, ip, model.FindInterestPeriodFor(day(time.January, 10)))
	assert.Len(t, first.InterestPeriods(), 2)

	// before the schedule clamps to the first interest period
	assert.Same(t, first.InterestPeriods()[0], model.FindInterestPeriodFor(day(time.January, 1).AddDate(0, -1, 0)))

	// after maturity opens a zero length period at maturity
	tail := model.FindInterestPeriodFor(day(time.April, 15))
	assert.Equal(t, day(time.March, 1), tail.FromDate())
	assert.Equal(t, day(time.March, 1), tail.DueDate())
	assert.Same(t, last, tail.RepaymentPeriod())
	assert.True(t, tail.IsAssignedOwnRepaymentPeriod())
	assert.Same(t, tail, model.FindInterestPeriodFor(day(time.March, 1)))
}

func TestSchedule_CopyFidelity(t *testing.T) {
	calc := newTestCalculator("12")
	model := twoMonthModel(t, calc)
	first := model.FirstPeriod()
	require.NoError(t, calc.PayInterest(model, first.DueDate(), usd("10")))
	require.NoError(t, calc.PayPrincipal(model, first.DueDate(), day(time.January, 20), usd("200")))

	clone := model.Copy()
	require.Equal(t, model.Len(), clone.Len())
	for i, original := range model.Periods() {
		copied := clone.Periods()[i]
		assert.NotSame(t, original, copied)
		assert.True(t, original.PaidPrincipal().Equal(copied.PaidPrincipal()))
		assert.True(t, original.PaidInterest().Equal(copied.PaidInterest()))
		assert.True(t, original.EMI().Equal(copied.EMI()))
		assert.True(t, original.OutstandingLoanBalance().Equal(copied.OutstandingLoanBalance()))
		assert.Len(t, copied.InterestPeriods(), len(original.InterestPeriods()))
		for _, ip := range copied.InterestPeriods() {
			assert.Same(t, copied, ip.RepaymentPeriod())
		}
	}

	// mutating the copy leaves the original alone
	clone.FirstPeriod().AddPaidPrincipalAmount(usd("1"))
	assert.Equal(t, "200.00 USD", model.FirstPeriod().PaidPrincipal().String())
}

func TestSchedule_AppendCloneChainsPeriods(t *testing.T) {
	calc := newTestCalculator("12")
	model := twoMonthModel(t, calc)
	require.NoError(t, calc.PayPrincipal(model, model.FirstPeriod().DueDate(), day(time.February, 1), usd("497.51")))

	rebuilt := New(model.Zero())
	for _, rp := range model.Periods() {
		rebuilt.AppendClone(rp)
	}
	rebuilt.RecalculateBalances()

	for i, rp := range rebuilt.Periods() {
		original := model.Periods()[i]
		assert.True(t, original.OutstandingLoanBalance().Equal(rp.OutstandingLoanBalance()), "period %d", i+1)
		assert.True(t, original.DuePrincipal().Equal(rp.DuePrincipal()), "period %d", i+1)
		assert.True(t, original.PaidPrincipal().Equal(rp.PaidPrincipal()), "period %d", i+1)
	}
	prev, ok := rebuilt.LastPeriod().Previous()
	require.True(t, ok)
	assert.Same(t, rebuilt.FirstPeriod(), prev)
}

func TestSchedule_Totals(t *testing.T) {
	calc := newTestCalculator("12")
	model := twoMonthModel(t, calc)
	require.NoError(t, calc.PayInterest(model, model.FirstPeriod().DueDate(), usd("10")))
	require.NoError(t, calc.PayPrincipal(model, model.FirstPeriod().DueDate(), day(time.February, 1), usd("497.51")))

	assert.Equal(t, "1000.00 USD", model.TotalDisbursed().String())
	assert.Equal(t, "-497.51 USD", model.TotalCorrections().String())
	assert.Equal(t, "502.49 USD", model.OutstandingPrincipal().String())
	assert.Equal(t, "497.51 USD", model.TotalPaidPrincipal().String())
	assert.Equal(t, "10.00 USD", model.TotalPaidInterest().String())
	assert.Equal(t, "15.02 USD", model.TotalDueInterest().String())
	assert.Equal(t, "1000.00 USD", model.TotalDuePrincipal().String())
}
