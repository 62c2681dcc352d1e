package models

import (
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/uptrace/bun"
)

// Expense : case related cost incurred by staff
type Expense struct {
	bun.BaseModel `bun:"table:expenses,alias:e"`

	ID               int64              `json:"id" bun:",pk,autoincrement"`
	CaseID           int64              `json:"case_id" bun:",notnull"`
	UserID           int64              `json:"user_id" bun:",notnull"`
	Description      string             `json:"description" bun:",type:varchar(500),notnull"`
	ExpenseType      common.ExpenseType `json:"expense_type" bun:",type:varchar(20),notnull"`
	Amount           money.Amount       `json:"amount" bun:",type:numeric(12,2),notnull"`
	MarkupPercentage money.Percent      `json:"markup_percentage" bun:",type:numeric(5,2),notnull"`
	TotalAmount      money.Amount       `json:"total_amount" bun:",type:numeric(12,2),notnull"`
	ExpenseDate      time.Time          `json:"expense_date" bun:",notnull"`
	Category         string             `json:"category" bun:",type:varchar(100),notnull"`
	Vendor           *string            `json:"vendor" bun:",type:varchar(200)"`
	ReceiptFilePath  *string            `json:"receipt_file_path" bun:",type:varchar(1000)"`
	IsReimbursed     bool               `json:"is_reimbursed" bun:",notnull"`
	CreatedAt        time.Time          `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	Case             *Case              `json:"case,omitempty" bun:"rel:belongs-to,join:case_id=id"`
	User             *User              `json:"user,omitempty" bun:"rel:belongs-to,join:user_id=id"`
	InvoiceLineItems []*InvoiceLineItem `json:"-" bun:"rel:has-many,join:id=expense_id"`
}

// NewExpense computes total_amount = amount × (1 + markup/100), e.g. 100.00
// with a 10 percent markup is 110.00.
func NewExpense(caseID, userID int64, description string, expenseType common.ExpenseType, amount money.Amount, markup money.Percent, expenseDate time.Time, category string) (*Expense, error) {
	var errs common.ValidationErrors
	if amount.IsNegative() {
		errs = append(errs, common.NewValidationError("amount", "gte", "amount must not be negative"))
	}
	if markup.IsNegative() {
		errs = append(errs, common.NewValidationError("markup_percentage", "gte", "markup_percentage must not be negative"))
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &Expense{
		CaseID:           caseID,
		UserID:           userID,
		Description:      description,
		ExpenseType:      expenseType,
		Amount:           amount,
		MarkupPercentage: markup,
		TotalAmount:      amount.Marked(markup),
		ExpenseDate:      utc(expenseDate),
		Category:         category,
		CreatedAt:        Now(),
	}, nil
}

// Reimburse flags a reimbursable expense as paid back to the staff member.
func (e *Expense) Reimburse() error {
	if e.ExpenseType != common.ExpenseTypeReimbursable {
		return &common.StateError{Entity: "expense", ID: e.ID, State: string(e.ExpenseType), Action: "reimburse"}
	}
	e.IsReimbursed = true
	return nil
}
