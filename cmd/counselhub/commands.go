package main

import (
	"fmt"
	"os"
	"time"

	"github.com/counselhub/counselhub.go/db/migrations"
	"github.com/counselhub/counselhub.go/lib/service"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"
)

func migrateCmd(a *app) *cobra.Command {
	var rollback bool

	c := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			defer a.close()

			migrator := migrate.NewMigrator(a.db, migrations.Migrations)
			if err := migrator.Init(ctx); err != nil {
				return fmt.Errorf("initializing db migrator: %w", err)
			}

			if rollback {
				group, err := migrator.Rollback(ctx)
				if err != nil {
					return fmt.Errorf("rolling back: %w", err)
				}
				if group.IsZero() {
					a.logger.Info().Msg("there are no groups to roll back")
					return nil
				}
				a.logger.Info().Str("group", group.String()).Msg("rolled back")
				return nil
			}

			group, err := migrator.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			if group.IsZero() {
				a.logger.Info().Msg("there are no new migrations to run (database is up to date)")
				return nil
			}
			a.logger.Info().Str("group", group.String()).Msg("migrated")
			return nil
		},
	}

	c.Flags().BoolVar(&rollback, "rollback", false, "Roll back the last migration group instead")
	return c
}

func trustCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "trust",
		Short: "Client trust accounts",
	}

	var accountID int64
	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored trust balances with their transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx); err != nil {
				return err
			}
			defer a.close()

			var recs []*service.TrustReconciliation
			if accountID != 0 {
				rec, err := a.svc.ReconcileTrustAccount(ctx, accountID)
				if err != nil {
					return err
				}
				recs = append(recs, rec)
			} else {
				var err error
				if recs, err = a.svc.ReconcileTrustAccounts(ctx); err != nil {
					return err
				}
			}
			printJSON(os.Stdout, recs)

			drifted := 0
			for _, rec := range recs {
				if !rec.InBalance() {
					drifted++
				}
			}
			if drifted > 0 {
				return fmt.Errorf("%d trust account(s) out of balance", drifted)
			}
			return nil
		},
	}
	reconcile.Flags().Int64Var(&accountID, "account", 0, "Trust account id (all active accounts when omitted)")

	c.AddCommand(reconcile)
	return c
}

func ledgerCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "ledger",
		Short: "Chart of accounts and journal",
	}

	trialBalance := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print debits, credits and roll-up balances per account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx); err != nil {
				return err
			}
			defer a.close()

			tb, err := a.svc.TrialBalance(ctx)
			if err != nil {
				return err
			}
			printJSON(os.Stdout, tb)
			if !tb.Balanced() {
				return fmt.Errorf("trial balance does not balance: debits %s, credits %s", tb.TotalDebits, tb.TotalCredits)
			}
			return nil
		},
	}

	c.AddCommand(trialBalance)
	return c
}

func invoicesCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "invoices",
		Short: "Client invoices",
	}

	var asOf string
	markOverdue := &cobra.Command{
		Use:   "mark-overdue",
		Short: "Flag sent invoices whose due date has passed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().UTC()
			if asOf != "" {
				day, err := time.Parse("2006-01-02", asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				now = day
			}

			ctx := cmd.Context()
			if err := a.start(ctx); err != nil {
				return err
			}
			defer a.close()

			overdue, err := a.svc.MarkOverdueInvoices(ctx, now)
			numbers := make([]string, 0, len(overdue))
			for _, invoice := range overdue {
				numbers = append(numbers, invoice.InvoiceNumber)
			}
			printJSON(os.Stdout, map[string]interface{}{"overdue": numbers})
			return err
		},
	}
	markOverdue.Flags().StringVar(&asOf, "as-of", "", "Reference date (YYYY-MM-DD), defaults to now")

	c.AddCommand(markOverdue)
	return c
}
