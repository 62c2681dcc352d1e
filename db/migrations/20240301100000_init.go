package migrations

import (
	"context"

	"github.com/counselhub/counselhub.go/db/models"
	"github.com/uptrace/bun"
)

type table struct {
	model       interface{}
	foreignKeys []string
}

func restrict(column, target string) string {
	return `("` + column + `") REFERENCES "` + target + `" ("id") ON DELETE RESTRICT`
}

func cascade(column, target string) string {
	return `("` + column + `") REFERENCES "` + target + `" ("id") ON DELETE CASCADE`
}

// Tables are listed in foreign key order. Deletes are restricted everywhere
// except for pure join rows, which follow their owner.
var tables = []table{
	{model: (*models.User)(nil)},
	{model: (*models.Client)(nil)},
	{model: (*models.BeneficiaryRelationship)(nil), foreignKeys: []string{
		cascade("beneficiary_id", "clients"),
		cascade("dependent_id", "clients"),
	}},
	{model: (*models.CaseType)(nil)},
	{model: (*models.Case)(nil), foreignKeys: []string{
		restrict("client_id", "clients"),
		restrict("case_type_id", "case_types"),
		restrict("assigned_attorney_id", "users"),
	}},
	{model: (*models.OpposingParty)(nil), foreignKeys: []string{
		restrict("case_id", "cases"),
	}},
	{model: (*models.Jurisdiction)(nil)},
	{model: (*models.CaseJurisdiction)(nil), foreignKeys: []string{
		cascade("case_id", "cases"),
		restrict("jurisdiction_id", "jurisdictions"),
	}},
	{model: (*models.Document)(nil), foreignKeys: []string{
		restrict("case_id", "cases"),
		restrict("uploaded_by_id", "users"),
	}},
	{model: (*models.Activity)(nil), foreignKeys: []string{
		restrict("case_id", "cases"),
		restrict("assigned_user_id", "users"),
	}},
	{model: (*models.TimeEntry)(nil), foreignKeys: []string{
		restrict("activity_id", "activities"),
		restrict("user_id", "users"),
	}},
	{model: (*models.Expense)(nil), foreignKeys: []string{
		restrict("case_id", "cases"),
		restrict("user_id", "users"),
	}},
	{model: (*models.Invoice)(nil), foreignKeys: []string{
		restrict("case_id", "cases"),
	}},
	{model: (*models.InvoiceLineItem)(nil), foreignKeys: []string{
		restrict("invoice_id", "invoices"),
		restrict("time_entry_id", "time_entries"),
		restrict("expense_id", "expenses"),
	}},
	{model: (*models.TrustAccount)(nil)},
	{model: (*models.TrustTransaction)(nil), foreignKeys: []string{
		restrict("trust_account_id", "trust_accounts"),
		restrict("case_id", "cases"),
	}},
	{model: (*models.Account)(nil), foreignKeys: []string{
		restrict("parent_account_id", "accounts"),
	}},
	{model: (*models.JournalEntry)(nil), foreignKeys: []string{
		restrict("account_id", "accounts"),
		restrict("created_by_id", "users"),
	}},
}

type index struct {
	model   interface{}
	name    string
	columns []string
}

var indexes = []index{
	{(*models.Case)(nil), "cases_client_id_idx", []string{"client_id"}},
	{(*models.Activity)(nil), "activities_case_id_idx", []string{"case_id"}},
	{(*models.TimeEntry)(nil), "time_entries_activity_id_idx", []string{"activity_id"}},
	{(*models.Expense)(nil), "expenses_case_id_idx", []string{"case_id"}},
	{(*models.InvoiceLineItem)(nil), "invoice_line_items_invoice_id_idx", []string{"invoice_id"}},
	{(*models.TrustTransaction)(nil), "trust_transactions_account_case_idx", []string{"trust_account_id", "case_id"}},
	{(*models.JournalEntry)(nil), "journal_entries_transaction_id_idx", []string{"transaction_id"}},
	{(*models.JournalEntry)(nil), "journal_entries_account_id_idx", []string{"account_id"}},
}

// This init reflects the latest model fields when run on a fresh db, so later
// migrations that add or remove columns must use IfNotExists/IfExists.
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, t := range tables {
			q := db.NewCreateTable().Model(t.model).IfNotExists()
			for _, fk := range t.foreignKeys {
				q = q.ForeignKey(fk)
			}
			if _, err := q.Exec(ctx); err != nil {
				return err
			}
		}
		for _, idx := range indexes {
			if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := db.NewDropTable().Model(tables[i].model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
