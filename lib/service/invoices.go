package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/uptrace/bun"
)

// CreateInvoice opens a draft invoice numbered <prefix>-<case_number>-<seq>.
func (svc *PracticeService) CreateInvoice(ctx context.Context, body *schemas.InvoiceCreate) (*models.Invoice, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	var invoice *models.Invoice
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var c models.Case
		if err := svc.forUpdate(tx.NewSelect().Model(&c).Where("c.id = ?", body.CaseID)).Limit(1).Scan(ctx); err != nil {
			if notFound(err) == common.ErrNotFound {
				return &common.ReferentialIntegrityError{Entity: "invoice", Field: "case_id", ID: body.CaseID}
			}
			return err
		}
		count, err := tx.NewSelect().Model((*models.Invoice)(nil)).Where("i.case_id = ?", c.ID).Count(ctx)
		if err != nil {
			return err
		}
		number := fmt.Sprintf("%s-%s-%03d", svc.Config.InvoiceNumberPrefix, c.CaseNumber, count+1)
		if invoice, err = body.ToModel(number); err != nil {
			return err
		}
		return insert(ctx, tx, invoice, "invoice", "invoice_number", number)
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "invoice", invoice.ID, invoice)
	return invoice, nil
}

// FindInvoice loads an invoice with its line items in insertion order.
func (svc *PracticeService) FindInvoice(ctx context.Context, invoiceID int64) (*models.Invoice, error) {
	var invoice models.Invoice
	err := svc.DB.NewSelect().
		Model(&invoice).
		Relation("LineItems", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("li.id")
		}).
		Where("i.id = ?", invoiceID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

// AddTimeToInvoice bills a time entry on a draft invoice of the same case and
// marks the entry billed.
func (svc *PracticeService) AddTimeToInvoice(ctx context.Context, invoiceID, timeEntryID, version int64) (*models.InvoiceLineItem, error) {
	var item *models.InvoiceLineItem
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		invoice, err := svc.draftInvoice(ctx, tx, invoiceID, version)
		if err != nil {
			return err
		}
		var entry models.TimeEntry
		err = tx.NewSelect().
			Model(&entry).
			Relation("Activity").
			Relation("User").
			Where("te.id = ?", timeEntryID).
			Limit(1).
			Scan(ctx)
		if notFound(err) == common.ErrNotFound {
			return &common.ReferentialIntegrityError{Entity: "invoice_line_item", Field: "time_entry_id", ID: timeEntryID}
		}
		if err != nil {
			return err
		}
		if entry.Activity.CaseID != invoice.CaseID {
			return common.NewValidationError("time_entry_id", "case", "time entry %d belongs to another case", entry.ID)
		}
		if !entry.IsBillable() {
			return &common.StateError{Entity: "time_entry", ID: entry.ID, State: string(entry.BillableStatus), Action: "invoice"}
		}
		item = models.TimeLineItem(invoice.ID, &entry, entry.User)
		if err := svc.addLineItem(ctx, tx, invoice, item, "time_entry_id", "time_entry_id = ?", entry.ID); err != nil {
			return err
		}
		entry.BillableStatus = common.BillableStatusBilled
		_, err = tx.NewUpdate().Model(&entry).Column("billable_status").WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	svc.Logger.Info().Int64("invoice_id", invoiceID).Int64("time_entry_id", timeEntryID).Msg("time entry invoiced")
	return item, nil
}

// AddExpenseToInvoice bills an expense on a draft invoice of the same case at
// its marked-up total.
func (svc *PracticeService) AddExpenseToInvoice(ctx context.Context, invoiceID, expenseID, version int64) (*models.InvoiceLineItem, error) {
	var item *models.InvoiceLineItem
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		invoice, err := svc.draftInvoice(ctx, tx, invoiceID, version)
		if err != nil {
			return err
		}
		var expense models.Expense
		err = tx.NewSelect().Model(&expense).Relation("User").Where("e.id = ?", expenseID).Limit(1).Scan(ctx)
		if notFound(err) == common.ErrNotFound {
			return &common.ReferentialIntegrityError{Entity: "invoice_line_item", Field: "expense_id", ID: expenseID}
		}
		if err != nil {
			return err
		}
		if expense.CaseID != invoice.CaseID {
			return common.NewValidationError("expense_id", "case", "expense %d belongs to another case", expense.ID)
		}
		item = models.ExpenseLineItem(invoice.ID, &expense, expense.User)
		return svc.addLineItem(ctx, tx, invoice, item, "expense_id", "expense_id = ?", expense.ID)
	})
	if err != nil {
		return nil, err
	}
	svc.Logger.Info().Int64("invoice_id", invoiceID).Int64("expense_id", expenseID).Msg("expense invoiced")
	return item, nil
}

// draftInvoice locks the invoice and checks it still accepts line items.
func (svc *PracticeService) draftInvoice(ctx context.Context, tx bun.Tx, invoiceID, version int64) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := svc.forUpdate(tx.NewSelect().Model(&invoice).Where("i.id = ?", invoiceID)).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	if invoice.Version != version {
		return nil, &common.ConcurrentUpdateError{Entity: "invoice", ID: invoiceID, Version: version}
	}
	if !invoice.AcceptsItems() {
		return nil, invoiceStateError(&invoice, "add line items to")
	}
	return &invoice, nil
}

// addLineItem stores item unless its source is already on an invoice, then
// recomputes the invoice subtotals.
func (svc *PracticeService) addLineItem(ctx context.Context, tx bun.Tx, invoice *models.Invoice, item *models.InvoiceLineItem, field, sourceQuery string, sourceID int64) error {
	billed, err := tx.NewSelect().Model((*models.InvoiceLineItem)(nil)).Where(sourceQuery, sourceID).Exists(ctx)
	if err != nil {
		return err
	}
	if billed {
		return &common.UniquenessViolation{Entity: "invoice_line_item", Field: field, Value: idString(sourceID)}
	}
	if err := insert(ctx, tx, item, "invoice_line_item", field, idString(sourceID)); err != nil {
		return err
	}
	var items []*models.InvoiceLineItem
	if err := tx.NewSelect().Model(&items).Where("li.invoice_id = ?", invoice.ID).Scan(ctx); err != nil {
		return err
	}
	invoice.Recalculate(items)
	return updateVersioned(ctx, tx, invoice, "invoice", invoice.ID, &invoice.Version,
		"subtotal_time", "subtotal_expenses", "total_amount")
}

func (svc *PracticeService) SendInvoice(ctx context.Context, invoiceID, version int64) (*models.Invoice, error) {
	return svc.moveInvoice(ctx, invoiceID, version, (*models.Invoice).Send, "status", "sent_at")
}

func (svc *PracticeService) MarkInvoicePaid(ctx context.Context, invoiceID, version int64) (*models.Invoice, error) {
	return svc.moveInvoice(ctx, invoiceID, version, (*models.Invoice).MarkPaid, "status", "paid_at")
}

// CancelInvoice voids an unpaid invoice. Its sources stay billed.
func (svc *PracticeService) CancelInvoice(ctx context.Context, invoiceID, version int64) (*models.Invoice, error) {
	return svc.moveInvoice(ctx, invoiceID, version, (*models.Invoice).Cancel, "status")
}

func (svc *PracticeService) moveInvoice(ctx context.Context, invoiceID, version int64, move func(*models.Invoice) error, columns ...string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := load(ctx, svc.DB, &invoice, invoiceID); err != nil {
		return nil, err
	}
	if invoice.Version != version {
		return nil, &common.ConcurrentUpdateError{Entity: "invoice", ID: invoiceID, Version: version}
	}
	if err := move(&invoice); err != nil {
		return nil, err
	}
	if err := updateVersioned(ctx, svc.DB, &invoice, "invoice", invoice.ID, &invoice.Version, columns...); err != nil {
		return nil, err
	}
	svc.Logger.Info().Int64("invoice_id", invoice.ID).Str("status", string(invoice.Status)).Msg("invoice status changed")
	return &invoice, nil
}

// MarkOverdueInvoices flags every sent invoice due before now. Invoices
// changed concurrently are skipped and picked up by the next run.
func (svc *PracticeService) MarkOverdueInvoices(ctx context.Context, now time.Time) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	err := svc.DB.NewSelect().
		Model(&invoices).
		Where("i.status = ?", common.InvoiceStatusSent).
		Where("i.due_date < ?", now.UTC()).
		Order("i.id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	overdue := make([]*models.Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		if !invoice.MarkOverdue(now) {
			continue
		}
		err := updateVersioned(ctx, svc.DB, invoice, "invoice", invoice.ID, &invoice.Version, "status")
		var conflict *common.ConcurrentUpdateError
		if errors.As(err, &conflict) {
			svc.Logger.Warn().Int64("invoice_id", invoice.ID).Msg("invoice changed while marking overdue")
			continue
		}
		if err != nil {
			return overdue, err
		}
		svc.Metrics.InvoicesOverdue.Inc()
		overdue = append(overdue, invoice)
	}
	return overdue, nil
}

func invoiceStateError(invoice *models.Invoice, action string) error {
	return &common.StateError{Entity: "invoice", ID: invoice.ID, State: string(invoice.Status), Action: action}
}
