package models

import (
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/uptrace/bun"
)

// Invoice : billing document for a case
type Invoice struct {
	bun.BaseModel `bun:"table:invoices,alias:i"`

	ID               int64                `json:"id" bun:",pk,autoincrement"`
	CaseID           int64                `json:"case_id" bun:",notnull"`
	InvoiceNumber    string               `json:"invoice_number" bun:",type:varchar(100),notnull,unique"`
	InvoiceDate      time.Time            `json:"invoice_date" bun:",notnull"`
	DueDate          time.Time            `json:"due_date" bun:",notnull"`
	SubtotalTime     money.Amount         `json:"subtotal_time" bun:",type:numeric(12,2),notnull"`
	SubtotalExpenses money.Amount         `json:"subtotal_expenses" bun:",type:numeric(12,2),notnull"`
	TotalAmount      money.Amount         `json:"total_amount" bun:",type:numeric(12,2),notnull"`
	Status           common.InvoiceStatus `json:"status" bun:",type:varchar(50),notnull"`
	Notes            *string              `json:"notes" bun:",type:varchar(2000)"`
	Version          int64                `json:"version" bun:",notnull"`
	CreatedAt        time.Time            `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	SentAt           bun.NullTime         `json:"sent_at"`
	PaidAt           bun.NullTime         `json:"paid_at"`

	Case      *Case              `json:"case,omitempty" bun:"rel:belongs-to,join:case_id=id"`
	LineItems []*InvoiceLineItem `json:"line_items,omitempty" bun:"rel:has-many,join:id=invoice_id"`
}

// NewInvoice creates an empty draft. due_date may not precede invoice_date.
func NewInvoice(caseID int64, invoiceNumber string, invoiceDate, dueDate time.Time, notes *string) (*Invoice, error) {
	if dueDate.Before(invoiceDate) {
		return nil, common.NewValidationError("due_date", "gtefield", "due_date must not be before invoice_date")
	}
	inv := &Invoice{
		CaseID:        caseID,
		InvoiceNumber: invoiceNumber,
		InvoiceDate:   utc(invoiceDate),
		DueDate:       utc(dueDate),
		Status:        common.InvoiceStatusDraft,
		Notes:         notes,
		Version:       1,
		CreatedAt:     Now(),
	}
	inv.SetSubtotals(money.ZeroAmount(), money.ZeroAmount())
	return inv, nil
}

// SetSubtotals stores both subtotals and their sum as total_amount.
func (i *Invoice) SetSubtotals(timeSubtotal, expenseSubtotal money.Amount) {
	i.SubtotalTime = timeSubtotal
	i.SubtotalExpenses = expenseSubtotal
	i.TotalAmount = timeSubtotal.Add(expenseSubtotal)
}

// Recalculate derives the subtotals from the invoice's line items.
func (i *Invoice) Recalculate(items []*InvoiceLineItem) {
	timeSubtotal, expenseSubtotal := money.ZeroAmount(), money.ZeroAmount()
	for _, item := range items {
		switch item.LineType {
		case common.LineTypeTime:
			timeSubtotal = timeSubtotal.Add(item.Amount)
		case common.LineTypeExpense:
			expenseSubtotal = expenseSubtotal.Add(item.Amount)
		}
	}
	i.SetSubtotals(timeSubtotal, expenseSubtotal)
}

func (i *Invoice) AcceptsItems() bool {
	return i.Status == common.InvoiceStatusDraft
}

func (i *Invoice) Send() error {
	if i.Status != common.InvoiceStatusDraft {
		return i.stateError("send")
	}
	i.Status = common.InvoiceStatusSent
	i.SentAt = bun.NullTime{Time: Now()}
	return nil
}

func (i *Invoice) MarkPaid() error {
	if i.Status != common.InvoiceStatusSent && i.Status != common.InvoiceStatusOverdue {
		return i.stateError("mark paid")
	}
	i.Status = common.InvoiceStatusPaid
	i.PaidAt = bun.NullTime{Time: Now()}
	return nil
}

// MarkOverdue flags a sent invoice whose due date has passed at now. It
// reports whether the status changed.
func (i *Invoice) MarkOverdue(now time.Time) bool {
	if i.Status != common.InvoiceStatusSent || !now.After(i.DueDate) {
		return false
	}
	i.Status = common.InvoiceStatusOverdue
	return true
}

func (i *Invoice) Cancel() error {
	if i.Status == common.InvoiceStatusPaid || i.Status == common.InvoiceStatusCancelled {
		return i.stateError("cancel")
	}
	i.Status = common.InvoiceStatusCancelled
	return nil
}

func (i *Invoice) stateError(action string) error {
	return &common.StateError{Entity: "invoice", ID: i.ID, State: string(i.Status), Action: action}
}

// LineSource is the record a line item bills: a TimeSource or an ExpenseSource.
type LineSource interface {
	LineType() common.LineType
}

type TimeSource struct {
	TimeEntryID int64
}

func (TimeSource) LineType() common.LineType { return common.LineTypeTime }

type ExpenseSource struct {
	ExpenseID int64
}

func (ExpenseSource) LineType() common.LineType { return common.LineTypeExpense }

// InvoiceLineItem : one billed unit on an invoice
type InvoiceLineItem struct {
	bun.BaseModel `bun:"table:invoice_line_items,alias:li"`

	ID           int64               `json:"id" bun:",pk,autoincrement"`
	InvoiceID    int64               `json:"invoice_id" bun:",notnull"`
	TimeEntryID  *int64              `json:"time_entry_id"`
	ExpenseID    *int64              `json:"expense_id"`
	LineType     common.LineType     `json:"line_type" bun:",type:varchar(50),notnull"`
	Date         time.Time           `json:"date" bun:",notnull"`
	ResourceName string              `json:"resource_name" bun:",type:varchar(200),notnull"`
	ResourceType common.ResourceType `json:"resource_type" bun:",type:varchar(20),notnull"`
	Description  string              `json:"description" bun:",type:varchar(1000),notnull"`
	Quantity     money.Quantity      `json:"quantity" bun:",type:numeric(10,3),notnull"`
	Rate         money.Amount        `json:"rate" bun:",type:numeric(12,2),notnull"`
	Amount       money.Amount        `json:"amount" bun:",type:numeric(12,2),notnull"`
	CreatedAt    time.Time           `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	Invoice   *Invoice   `json:"-" bun:"rel:belongs-to,join:invoice_id=id"`
	TimeEntry *TimeEntry `json:"time_entry,omitempty" bun:"rel:belongs-to,join:time_entry_id=id"`
	Expense   *Expense   `json:"expense,omitempty" bun:"rel:belongs-to,join:expense_id=id"`
}

// NewInvoiceLineItem computes amount = quantity × rate. Exactly one of
// time_entry_id and expense_id is set, chosen by source.
func NewInvoiceLineItem(invoiceID int64, source LineSource, date time.Time, resourceName string, resourceType common.ResourceType, description string, quantity money.Quantity, rate money.Amount) *InvoiceLineItem {
	item := &InvoiceLineItem{
		InvoiceID:    invoiceID,
		LineType:     source.LineType(),
		Date:         utc(date),
		ResourceName: resourceName,
		ResourceType: resourceType,
		Description:  description,
		Quantity:     quantity,
		Rate:         rate,
		Amount:       quantity.Extend(rate),
		CreatedAt:    Now(),
	}
	switch s := source.(type) {
	case TimeSource:
		item.TimeEntryID = &s.TimeEntryID
	case ExpenseSource:
		item.ExpenseID = &s.ExpenseID
	}
	return item
}

// TimeLineItem bills a time entry at its recorded hours and rate.
func TimeLineItem(invoiceID int64, entry *TimeEntry, worker *User) *InvoiceLineItem {
	return NewInvoiceLineItem(invoiceID, TimeSource{TimeEntryID: entry.ID}, entry.Date,
		worker.FullName(), worker.Role.ResourceType(), entry.Description,
		money.QuantityOfHours(entry.Hours), entry.RatePerHour)
}

// ExpenseLineItem bills an expense as a single unit at its marked-up total.
func ExpenseLineItem(invoiceID int64, expense *Expense, spender *User) *InvoiceLineItem {
	return NewInvoiceLineItem(invoiceID, ExpenseSource{ExpenseID: expense.ID}, expense.ExpenseDate,
		spender.FullName(), spender.Role.ResourceType(), expense.Description,
		money.MustQuantity("1"), expense.TotalAmount)
}

// Source reads the stored reference back as a LineSource. It returns nil for
// a row that references neither a time entry nor an expense.
func (li *InvoiceLineItem) Source() LineSource {
	switch {
	case li.LineType == common.LineTypeTime && li.TimeEntryID != nil:
		return TimeSource{TimeEntryID: *li.TimeEntryID}
	case li.LineType == common.LineTypeExpense && li.ExpenseID != nil:
		return ExpenseSource{ExpenseID: *li.ExpenseID}
	}
	return nil
}
