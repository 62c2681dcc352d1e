package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if db.Dialect().Name().String() != "pg" {
			fmt.Printf("\033[1;31m%s\033[0m", "You are not using PostgreSQL. DB level checks can not be enabled!\n")
			return nil
		}
		sql := `
			-- a client cannot be its own beneficiary
				ALTER TABLE beneficiary_relationships
				ADD CONSTRAINT check_not_same_client
				CHECK (beneficiary_id != dependent_id);

			-- at most one primary venue per case, and each venue once
				CREATE UNIQUE INDEX case_jurisdictions_one_primary
				ON case_jurisdictions (case_id) WHERE is_primary;
				CREATE UNIQUE INDEX case_jurisdictions_case_venue
				ON case_jurisdictions (case_id, jurisdiction_id);

			-- a line item bills exactly one source, matching its line type
				ALTER TABLE invoice_line_items
				ADD CONSTRAINT check_line_source
				CHECK (
					(line_type = 'time' AND time_entry_id IS NOT NULL AND expense_id IS NULL)
					OR (line_type = 'expense' AND expense_id IS NOT NULL AND time_entry_id IS NULL)
				);
				CREATE UNIQUE INDEX invoice_line_items_time_entry
				ON invoice_line_items (time_entry_id) WHERE time_entry_id IS NOT NULL;
				CREATE UNIQUE INDEX invoice_line_items_expense
				ON invoice_line_items (expense_id) WHERE expense_id IS NOT NULL;

			-- derived totals are never negative, hours are positive
				ALTER TABLE time_entries
				ADD CONSTRAINT check_positive_hours CHECK (hours > 0);
				ALTER TABLE trust_accounts
				ADD CONSTRAINT check_trust_balance CHECK (current_balance >= 0);

			-- every journal line posts exactly one positive side
				ALTER TABLE journal_entries
				ADD CONSTRAINT check_single_side
				CHECK (debit_amount >= 0 AND credit_amount >= 0 AND (debit_amount > 0) != (credit_amount > 0));

			-- debits equal credits per transaction, checked at commit
				CREATE OR REPLACE FUNCTION check_journal_balance()
					RETURNS TRIGGER AS $$
				DECLARE
					debits NUMERIC;
					credits NUMERIC;
				BEGIN
					SELECT INTO debits, credits COALESCE(SUM(debit_amount), 0), COALESCE(SUM(credit_amount), 0)
					FROM journal_entries
					WHERE transaction_id = NEW.transaction_id;

					IF debits != credits
					THEN
						RAISE EXCEPTION 'unbalanced journal transaction [transaction_id:%] debits [%] credits [%]',
						NEW.transaction_id,
						debits,
						credits;
					END IF;
					RETURN NEW;
				END;
				$$ LANGUAGE plpgsql;
				CREATE CONSTRAINT TRIGGER check_journal_balance
				AFTER INSERT OR UPDATE ON journal_entries
				DEFERRABLE INITIALLY DEFERRED
				FOR EACH ROW EXECUTE PROCEDURE check_journal_balance();
		`
		if _, err := db.Exec(sql); err != nil {
			return err
		}
		return nil
	}, nil)
}
