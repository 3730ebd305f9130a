package accounting

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/internal/domain"
)

type leg struct {
	account string
	kind    domain.EntryType
	amount  decimal.Decimal
}

// Journal builds cash-based postings for the transactions of one loan.
type Journal struct {
	loan          *domain.Loan
	accounts      domain.GLAccounts
	chargeOffDate *time.Time
	now           func() time.Time
}

// NewJournal returns a journal for loan. chargeOffDate is the date the replayed loan was
// charged off on, nil when it is not charged off; repayments after it are recoveries.
func NewJournal(loan *domain.Loan, chargeOffDate *time.Time) *Journal {
	return &Journal{
		loan:          loan,
		accounts:      loan.Terms.Accounts,
		chargeOffDate: chargeOffDate,
		now:           time.Now,
	}
}

// Entries returns the entries posting tx.
func (j *Journal) Entries(tx *domain.Transaction) []*domain.JournalEntry {
	var entries []*domain.JournalEntry
	for _, l := range j.legs(tx) {
		if !l.amount.IsPositive() {
			continue
		}
		entries = append(entries, &domain.JournalEntry{
			ID:            uuid.New(),
			LoanID:        j.loan.ID,
			TransactionID: tx.ID,
			Account:       l.account,
			Type:          l.kind,
			Amount:        l.amount,
			Currency:      j.loan.Terms.CurrencyCode,
			EntryDate:     tx.TransactionDate,
			CreatedAt:     j.now(),
		})
	}
	return entries
}

func (j *Journal) legs(tx *domain.Transaction) []leg {
	a := j.accounts
	switch {
	case tx.Type == domain.TxDisbursement:
		return []leg{
			{a.LoanPortfolio, domain.Debit, tx.PrincipalPortion},
			{a.FundSource, domain.Credit, tx.PrincipalPortion},
		}

	case tx.Type.IsRepaymentLike():
		source := a.FundSource
		if tx.Type == domain.TxGoodwillCredit {
			source = a.GoodwillExpense
		}
		legs := []leg{{source, domain.Debit, tx.Amount}}
		if j.isRecovery(tx) {
			recovered := tx.PrincipalPortion.Add(tx.InterestPortion).Add(tx.FeePortion).Add(tx.PenaltyPortion)
			return append(legs,
				leg{a.RecoveryIncome, domain.Credit, recovered},
				leg{a.Overpayment, domain.Credit, tx.OverpaymentPortion},
			)
		}
		return append(legs,
			leg{a.LoanPortfolio, domain.Credit, tx.PrincipalPortion},
			leg{a.InterestIncome, domain.Credit, tx.InterestPortion},
			leg{a.FeeIncome, domain.Credit, tx.FeePortion},
			leg{a.PenaltyIncome, domain.Credit, tx.PenaltyPortion},
			leg{a.Overpayment, domain.Credit, tx.OverpaymentPortion},
		)

	case tx.Type == domain.TxChargeback:
		return []leg{
			{a.LoanPortfolio, domain.Debit, tx.PrincipalPortion},
			{a.Overpayment, domain.Debit, tx.OverpaymentPortion},
			{a.FundSource, domain.Credit, tx.Amount},
		}

	case tx.Type == domain.TxCreditBalanceRefund:
		return []leg{
			{a.Overpayment, domain.Debit, tx.OverpaymentPortion},
			{a.FundSource, domain.Credit, tx.OverpaymentPortion},
		}

	case tx.Type == domain.TxChargeOff:
		// cash basis: only principal sits on the books
		expense := a.ChargeOffExpense
		if j.loan.Fraud {
			expense = a.ChargeOffFraudExpense
		}
		return []leg{
			{expense, domain.Debit, tx.PrincipalPortion},
			{a.LoanPortfolio, domain.Credit, tx.PrincipalPortion},
		}
	}
	return nil
}

func (j *Journal) isRecovery(tx *domain.Transaction) bool {
	return j.chargeOffDate != nil && tx.TransactionDate.After(*j.chargeOffDate)
}

// Reconciliation is the journal work produced by replaying a loan.
type Reconciliation struct {
	// Reversed are the ids of existing entries that got a reversal leg.
	Reversed []uuid.UUID
	// Entries are the reversal legs and fresh postings to insert.
	Entries []*domain.JournalEntry
}

func (r Reconciliation) IsEmpty() bool {
	return len(r.Reversed) == 0 && len(r.Entries) == 0
}

// Reconcile compares the active entries already posted for a loan with what the replayed
// transactions should post. A transaction whose postings differ has its old entries
// reversed on businessDate and is posted again; a transaction no longer replayed is
// only reversed.
func (j *Journal) Reconcile(existing []*domain.JournalEntry, replayed []*domain.Transaction, businessDate time.Time) Reconciliation {
	posted := make(map[uuid.UUID][]*domain.JournalEntry)
	for _, e := range existing {
		if e.Reversal || e.Reversed {
			continue
		}
		posted[e.TransactionID] = append(posted[e.TransactionID], e)
	}

	var rec Reconciliation
	seen := make(map[uuid.UUID]bool, len(replayed))
	for _, tx := range replayed {
		seen[tx.ID] = true
		wanted := j.Entries(tx)
		current := posted[tx.ID]
		if sameLegs(current, wanted) {
			continue
		}
		j.reverse(&rec, current, businessDate)
		rec.Entries = append(rec.Entries, wanted...)
	}

	// deterministic order for transactions that dropped out of the feed
	var gone []uuid.UUID
	for id := range posted {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	sort.Slice(gone, func(a, b int) bool { return gone[a].String() < gone[b].String() })
	for _, id := range gone {
		j.reverse(&rec, posted[id], businessDate)
	}
	return rec
}

func (j *Journal) reverse(rec *Reconciliation, entries []*domain.JournalEntry, businessDate time.Time) {
	for _, e := range entries {
		kind := domain.Credit
		if e.Type == domain.Credit {
			kind = domain.Debit
		}
		rec.Reversed = append(rec.Reversed, e.ID)
		rec.Entries = append(rec.Entries, &domain.JournalEntry{
			ID:            uuid.New(),
			LoanID:        e.LoanID,
			TransactionID: e.TransactionID,
			Account:       e.Account,
			Type:          kind,
			Amount:        e.Amount,
			Currency:      e.Currency,
			EntryDate:     businessDate,
			Reversal:      true,
			CreatedAt:     j.now(),
		})
	}
}

func sameLegs(a, b []*domain.JournalEntry) bool {
	if len(a) != len(b) {
		return false
	}
	key := func(e *domain.JournalEntry) string {
		return e.Account + "|" + string(e.Type) + "|" + e.Amount.StringFixed(8) + "|" + e.EntryDate.Format("2006-01-02")
	}
	counts := make(map[string]int, len(a))
	for _, e := range a {
		counts[key(e)]++
	}
	for _, e := range b {
		k := key(e)
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}

// Balanced reports whether debits equal credits across entries.
func Balanced(entries []*domain.JournalEntry) bool {
	total := decimal.Zero
	for _, e := range entries {
		if e.Type == domain.Debit {
			total = total.Add(e.Amount)
		} else {
			total = total.Sub(e.Amount)
		}
	}
	return total.IsZero()
}
