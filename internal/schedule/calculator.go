package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/pkg/money"
	"github.com/segyhp/loan-engine/pkg/utils"
)

var (
	ErrEmptySchedule  = errors.New("schedule has no repayment periods")
	ErrPeriodNotFound = errors.New("repayment period not found")
	ErrInvalidPlan    = errors.New("invalid schedule plan")
)

const (
	// maxEmiIterations bounds the secant search for the equal installment.
	maxEmiIterations = 5
	// maxSettleRounds bounds the passes moving a residual balance onto installments.
	maxSettleRounds = 8
)

// Frequency is the unit between two repayment due dates.
type Frequency string

const (
	FrequencyDays   Frequency = "DAYS"
	FrequencyWeeks  Frequency = "WEEKS"
	FrequencyMonths Frequency = "MONTHS"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToUpper(s)); f {
	case FrequencyDays, FrequencyWeeks, FrequencyMonths:
		return f, nil
	}
	return "", fmt.Errorf("unknown repayment frequency %q", s)
}

// Plan describes the shape of a repayment schedule before any money moves.
type Plan struct {
	DisbursementDate   time.Time
	FirstRepaymentDate time.Time
	Frequency          Frequency
	RepaymentEvery     int
	NumberOfRepayments int
}

// DueDate returns the due date of the installment at index i (0-based).
func (p Plan) DueDate(i int) time.Time {
	steps := i * p.RepaymentEvery
	switch p.Frequency {
	case FrequencyMonths:
		return utils.AddMonths(p.FirstRepaymentDate, steps)
	case FrequencyWeeks:
		return p.FirstRepaymentDate.AddDate(0, 0, 7*steps)
	default:
		return p.FirstRepaymentDate.AddDate(0, 0, steps)
	}
}

func (p Plan) Validate() error {
	switch {
	case p.NumberOfRepayments <= 0:
		return fmt.Errorf("%w: number of repayments must be positive", ErrInvalidPlan)
	case p.RepaymentEvery <= 0:
		return fmt.Errorf("%w: repayment every must be positive", ErrInvalidPlan)
	case !p.FirstRepaymentDate.After(p.DisbursementDate):
		return fmt.Errorf("%w: first repayment date must be after disbursement date", ErrInvalidPlan)
	}
	if _, err := ParseFrequency(string(p.Frequency)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return nil
}

// Config holds the product terms the calculator needs.
type Config struct {
	Currency    money.Currency
	MathContext money.MathContext
	// AnnualNominalInterestRate is in percent, 12 means 12% a year.
	AnnualNominalInterestRate      decimal.Decimal
	DayCount                       DayCount
	InstallmentAmountInMultiplesOf int64
}

// Calculator applies money events to a schedule and keeps the equal monthly
// installment (EMI) of the remaining periods amortising the loan to zero.
type Calculator struct {
	cfg  Config
	zero money.Money
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{
		cfg:  cfg,
		zero: money.Zero(cfg.Currency, cfg.MathContext),
	}
}

// Zero returns a zero amount in the configured currency.
func (c *Calculator) Zero() money.Money {
	return c.zero
}

// GenerateModel builds the empty schedule for a plan: periods, rate factors, no money.
func (c *Calculator) GenerateModel(plan Plan) (*Schedule, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	model := New(c.zero)
	from := plan.DisbursementDate
	for i := 0; i < plan.NumberOfRepayments; i++ {
		due := plan.DueDate(i)
		model.AppendPeriod(from, due, c.zero)
		from = due
	}
	c.refreshRateFactors(model)
	model.RecalculateBalances()
	return model, nil
}

// AddDisbursement books principal at date and re-amortises the periods after it.
func (c *Calculator) AddDisbursement(model *Schedule, date time.Time, amount money.Money) error {
	if model.Len() == 0 {
		return ErrEmptySchedule
	}
	if !amount.IsSet() || amount.IsZero() {
		return nil
	}
	model.FindInterestPeriodFor(date).AddDisbursedAmount(amount)
	c.refreshRateFactors(model)
	c.recalculateEMI(model, date)
	return nil
}

// AddBalanceCorrection moves the principal balance from date on. Negative amounts
// lower it.
func (c *Calculator) AddBalanceCorrection(model *Schedule, date time.Time, amount money.Money) error {
	if model.Len() == 0 {
		return ErrEmptySchedule
	}
	if !amount.IsSet() || amount.IsZero() {
		return nil
	}
	model.FindInterestPeriodFor(date).AddCorrectionAmount(amount)
	c.refreshRateFactors(model)
	c.recalculateEMI(model, date)
	return nil
}

// PayPrincipal records principal paid against the period due on periodDueDate. The
// balance drops from the transaction date, or from the due date for late payments.
func (c *Calculator) PayPrincipal(model *Schedule, periodDueDate, txDate time.Time, amount money.Money) error {
	rp, ok := model.PeriodByDueDate(periodDueDate)
	if !ok {
		return fmt.Errorf("%w: due %s", ErrPeriodNotFound, utils.FormatDate(periodDueDate))
	}
	if !amount.IsSet() || amount.IsZero() {
		return nil
	}
	correctionDate := utils.MinDate(txDate, rp.dueDate)
	rp.AddPaidPrincipalAmount(amount)
	model.FindInterestPeriodFor(correctionDate).AddCorrectionAmount(amount.Negated())
	c.refreshRateFactors(model)
	c.recalculateEMI(model, correctionDate)
	return nil
}

// PayInterest records interest paid against the period due on periodDueDate.
func (c *Calculator) PayInterest(model *Schedule, periodDueDate time.Time, amount money.Money) error {
	rp, ok := model.PeriodByDueDate(periodDueDate)
	if !ok {
		return fmt.Errorf("%w: due %s", ErrPeriodNotFound, utils.FormatDate(periodDueDate))
	}
	if !amount.IsSet() || amount.IsZero() {
		return nil
	}
	rp.AddPaidInterestAmount(amount)
	absorbResidual(model)
	return nil
}

// AddChargeback re-opens principal at date. The covering period's EMI grows by the
// amount; a chargeback after maturity gets its own period. The last period absorbs
// the interest the extra balance produces.
func (c *Calculator) AddChargeback(model *Schedule, date time.Time, amount money.Money) error {
	if model.Len() == 0 {
		return ErrEmptySchedule
	}
	if !amount.IsSet() || amount.IsZero() {
		return nil
	}
	if maturity := model.MaturityDate(); date.After(maturity) {
		model.AppendPeriod(maturity, date, c.zero)
	}
	model.FindInterestPeriodFor(date).AddCorrectionAmount(amount)
	c.refreshRateFactors(model)

	rp, ok := model.FindPeriodFor(date)
	if !ok {
		rp = model.FirstPeriod()
	}
	rp.SetEMI(rp.emi.Plus(amount))
	absorbResidual(model)
	return nil
}

// StopInterestAccrual zeroes interest from date on (charge-off) and re-amortises the
// remaining principal.
func (c *Calculator) StopInterestAccrual(model *Schedule, date time.Time) error {
	if model.Len() == 0 {
		return ErrEmptySchedule
	}
	model.interestStopDate = date
	model.interestStopped = true
	model.FindInterestPeriodFor(date)
	c.refreshRateFactors(model)
	c.recalculateEMI(model, date)
	return nil
}

// InterestAccruedTill is the interest of period earned up to date, including what the
// previous period could not recognise. From the due date on it is the full
// calculated interest.
func (c *Calculator) InterestAccruedTill(model *Schedule, period *RepaymentPeriod, date time.Time) money.Money {
	if !date.Before(period.dueDate) {
		return period.CalculatedDueInterest()
	}
	accrued := c.zero
	if prev, ok := period.Previous(); ok {
		accrued = accrued.Plus(prev.UnrecognizedInterest())
	}
	for _, ip := range period.interestPeriods {
		switch {
		case !ip.dueDate.After(date):
			accrued = accrued.Plus(ip.interestDue)
		case ip.fromDate.Before(date):
			rate := c.rateFactor(model, ip.fromDate, date)
			accrued = accrued.Plus(ip.principalBase().MultipliedBy(rate))
		}
	}
	return accrued
}

func (c *Calculator) rateFactor(model *Schedule, from, to time.Time) decimal.Decimal {
	if stop, stopped := model.InterestStopDate(); stopped {
		if !from.Before(stop) {
			return decimal.Zero
		}
		to = utils.MinDate(to, stop)
	}
	return c.cfg.DayCount.RateFactor(c.cfg.AnnualNominalInterestRate, from, to)
}

func (c *Calculator) refreshRateFactors(model *Schedule) {
	model.eachInterestPeriod(func(ip *InterestPeriod) {
		ip.rateFactor = c.rateFactor(model, ip.fromDate, ip.dueDate)
	})
}

func (c *Calculator) roundEMI(emi money.Money) money.Money {
	return emi.RoundToMultiplesOf(c.cfg.InstallmentAmountInMultiplesOf)
}

// emiTargets are the periods due after date that are not already settled. A zero
// EMI period counts as open even though nothing is owed on it yet.
func emiTargets(model *Schedule, date time.Time) []*RepaymentPeriod {
	var targets []*RepaymentPeriod
	for _, rp := range model.periods {
		if !rp.dueDate.After(date) {
			continue
		}
		if rp.IsFullyPaid() && !rp.emi.IsZero() {
			continue
		}
		targets = append(targets, rp)
	}
	return targets
}

func (c *Calculator) recalculateEMI(model *Schedule, date time.Time) {
	model.RecalculateBalances()
	targets := emiTargets(model, date)

	switch {
	case len(targets) == 0:
	case !model.OutstandingPrincipal().IsPositive():
		for _, rp := range targets {
			rp.SetEMI(rp.paidPrincipal.Plus(rp.paidInterest))
		}
	default:
		first := targets[0]
		balance := first.InitialBalanceForEmiRecalculation()
		for _, ip := range first.interestPeriods {
			balance = balance.Plus(ip.correctionAmount)
		}
		if !balance.IsPositive() {
			balance = model.OutstandingPrincipal()
		}
		c.searchEMI(model, targets, c.annuity(balance, targets))
	}

	absorbResidual(model)
}

// absorbResidual makes the installments owe exactly the principal booked on the
// schedule, that is no balance is left after the last period. A positive residual
// goes to the last period even when it was already paid; a negative one comes off
// the latest periods, never below what they were paid.
func absorbResidual(model *Schedule) {
	model.RecalculateBalances()
	for round := 0; round < maxSettleRounds; round++ {
		residual := model.LastPeriod().outstandingBalance()
		if residual.IsZero() {
			return
		}
		for i := len(model.periods) - 1; i >= 0 && !residual.IsZero(); i-- {
			rp := model.periods[i]
			due := rp.DuePrincipal()
			owed := money.Max(due.Plus(residual), rp.paidPrincipal, false)
			if owed.Equal(due) {
				continue
			}
			rp.owePrincipal(owed)
			residual = residual.Minus(owed.Minus(due))
		}
		model.RecalculateBalances()
	}
}

// annuity computes B * prod(1+r_i) / sum_j prod_{i>j}(1+r_i) over the target periods.
func (c *Calculator) annuity(balance money.Money, targets []*RepaymentPeriod) money.Money {
	one := decimal.NewFromInt(1)
	fn, acc := one, one
	for i := len(targets) - 1; i >= 1; i-- {
		acc = acc.Mul(targets[i].RateFactorPlus1()).Round(fractionScale)
		fn = fn.Add(acc)
	}
	product := acc.Mul(targets[0].RateFactorPlus1()).Round(fractionScale)
	return c.roundEMI(balance.MultipliedBy(product.DivRound(fn, fractionScale)))
}

// applyEMI sets emi on every target, or what the target was already paid when that is
// more, and returns the unfloored balance left after the last target.
func applyEMI(model *Schedule, targets []*RepaymentPeriod, emi money.Money) money.Money {
	for _, rp := range targets {
		rp.SetEMI(money.Max(emi, rp.paidPrincipal.Plus(rp.paidInterest), false))
	}
	model.RecalculateBalances()
	return targets[len(targets)-1].outstandingBalance()
}

// searchEMI runs a secant search from the annuity seed for the EMI that leaves the
// smallest residual and applies it.
func (c *Calculator) searchEMI(model *Schedule, targets []*RepaymentPeriod, seed money.Money) {
	e0 := seed
	f0 := applyEMI(model, targets, e0)
	if f0.IsZero() {
		return
	}

	best, bestResidual := e0, f0
	e1 := c.roundEMI(e0.Plus(f0.DividedBy(decimal.NewFromInt(int64(len(targets))))))
	for i := 0; i < maxEmiIterations && !e1.Equal(e0); i++ {
		f1 := applyEMI(model, targets, e1)
		if f1.Abs().IsLessThan(bestResidual.Abs()) {
			best, bestResidual = e1, f1
		}
		if f1.IsZero() || f1.Equal(f0) {
			break
		}
		slope := e1.Amount().Sub(e0.Amount()).DivRound(f1.Amount().Sub(f0.Amount()), fractionScale)
		next := c.roundEMI(e1.Minus(e1.Zero().PlusAmount(f1.Amount().Mul(slope))))
		e0, f0 = e1, f1
		e1 = next
	}

	applyEMI(model, targets, best)
}
