package service

import (
	"context"

	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/uptrace/bun"
)

// RecordExpense stores an expense with total_amount = amount × (1 + markup/100).
func (svc *PracticeService) RecordExpense(ctx context.Context, body *schemas.ExpenseCreate) (*models.Expense, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	expense, err := body.ToModel()
	if err != nil {
		return nil, err
	}
	err = svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.Case)(nil), "expense", "case_id", expense.CaseID); err != nil {
			return err
		}
		if err := requireRef(ctx, tx, (*models.User)(nil), "expense", "user_id", expense.UserID); err != nil {
			return err
		}
		return insert(ctx, tx, expense, "expense", "id", "")
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "expense", expense.ID, expense)
	return expense, nil
}

func (svc *PracticeService) FindExpense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	var expense models.Expense
	if err := load(ctx, svc.DB, &expense, expenseID); err != nil {
		return nil, err
	}
	return &expense, nil
}

func (svc *PracticeService) ReimburseExpense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	expense, err := svc.FindExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if err := expense.Reimburse(); err != nil {
		return nil, err
	}
	if _, err := svc.DB.NewUpdate().Model(expense).Column("is_reimbursed").WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return expense, nil
}

func (svc *PracticeService) CaseExpenses(ctx context.Context, caseID int64) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := svc.DB.NewSelect().Model(&expenses).Where("e.case_id = ?", caseID).Order("e.expense_date", "e.id").Scan(ctx)
	return expenses, err
}
