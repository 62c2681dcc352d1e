package ledger

import (
	"fmt"
	"strconv"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/money"
)

// Line is one posting of a journal transaction.
type Line struct {
	AccountID int64
	Debit     money.Amount
	Credit    money.Amount
}

// ValidateLines enforces double entry: at least two lines, each posting one
// positive side, with total debits equal to total credits.
func ValidateLines(lines []Line) error {
	if len(lines) < 2 {
		return common.NewValidationError("lines", "min", "a journal transaction needs at least 2 lines")
	}
	var errs common.ValidationErrors
	debits, credits := money.ZeroAmount(), money.ZeroAmount()
	for i, l := range lines {
		field := fmt.Sprintf("lines[%d]", i)
		switch {
		case l.Debit.IsNegative() || l.Credit.IsNegative():
			errs = append(errs, common.NewValidationError(field, "gte", "amounts must not be negative"))
		case l.Debit.IsPositive() == l.Credit.IsPositive():
			errs = append(errs, common.NewValidationError(field, "one_side", "exactly one of debit_amount and credit_amount must be positive"))
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if len(errs) > 0 {
		return errs
	}
	if !debits.Equal(credits.Decimal) {
		return &common.UnbalancedTransactionError{Debits: debits.String(), Credits: credits.String()}
	}
	return nil
}

// NormalBalance expresses debit and credit totals on the account type's
// normal side: debit-normal for assets and expenses, credit-normal otherwise.
func NormalBalance(accountType common.AccountType, debits, credits money.Amount) money.Amount {
	if accountType.DebitNormal() {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// TrialBalanceRow is one account line of a trial balance.
type TrialBalanceRow struct {
	AccountID     int64              `json:"account_id"`
	AccountNumber string             `json:"account_number"`
	AccountName   string             `json:"account_name"`
	AccountType   common.AccountType `json:"account_type"`
	Debits        money.Amount       `json:"debits"`
	Credits       money.Amount       `json:"credits"`
	Balance       money.Amount       `json:"balance"`
	Rollup        money.Amount       `json:"rollup"`
}

type TrialBalance struct {
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  money.Amount      `json:"total_debits"`
	TotalCredits money.Amount      `json:"total_credits"`
}

func (tb *TrialBalance) Balanced() bool {
	return tb.TotalDebits.Equal(tb.TotalCredits.Decimal)
}

// BuildTrialBalance totals entries per account, in the order accounts are
// given, and rolls normal balances up the chart.
func BuildTrialBalance(chart *Chart, accounts []*models.Account, entries []*models.JournalEntry) *TrialBalance {
	debits := map[int64]money.Amount{}
	credits := map[int64]money.Amount{}
	for _, e := range entries {
		debits[e.AccountID] = debits[e.AccountID].Add(e.DebitAmount)
		credits[e.AccountID] = credits[e.AccountID].Add(e.CreditAmount)
	}
	own := map[int64]money.Amount{}
	for _, a := range accounts {
		own[a.ID] = NormalBalance(a.AccountType, debits[a.ID], credits[a.ID])
	}
	rolled := chart.Rollup(own)

	tb := &TrialBalance{TotalDebits: money.ZeroAmount(), TotalCredits: money.ZeroAmount()}
	for _, a := range accounts {
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			AccountName:   a.AccountName,
			AccountType:   a.AccountType,
			Debits:        debits[a.ID],
			Credits:       credits[a.ID],
			Balance:       own[a.ID],
			Rollup:        rolled[a.ID],
		})
		tb.TotalDebits = tb.TotalDebits.Add(debits[a.ID])
		tb.TotalCredits = tb.TotalCredits.Add(credits[a.ID])
	}
	return tb
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
