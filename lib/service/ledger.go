package service

import (
	"context"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/ledger"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateAccount adds an account to the chart. A parent must exist and have
// the same account type.
func (svc *PracticeService) CreateAccount(ctx context.Context, body *schemas.AccountCreate) (*models.Account, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	account := body.ToModel()
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		chart, err := svc.loadChart(ctx, tx)
		if err != nil {
			return err
		}
		if account.ParentAccountID != nil && !chart.Contains(*account.ParentAccountID) {
			return &common.ReferentialIntegrityError{Entity: "account", Field: "parent_account_id", ID: *account.ParentAccountID}
		}
		if err := insert(ctx, tx, account, "account", "account_number", account.AccountNumber); err != nil {
			return err
		}
		return chart.Add(account.ID, account.AccountType, account.ParentAccountID)
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "account", account.ID, account)
	return account, nil
}

func (svc *PracticeService) FindAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var account models.Account
	if err := load(ctx, svc.DB, &account, accountID); err != nil {
		return nil, err
	}
	return &account, nil
}

// ReparentAccount moves an account under parentID, or to the top level when
// parentID is nil. Moves that would make an account its own ancestor fail
// with a CycleError.
func (svc *PracticeService) ReparentAccount(ctx context.Context, accountID int64, parentID *int64, version int64) (*models.Account, error) {
	var account models.Account
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		chart, err := svc.loadChart(ctx, tx)
		if err != nil {
			return err
		}
		if err := load(ctx, tx, &account, accountID); err != nil {
			return err
		}
		if account.Version != version {
			return &common.ConcurrentUpdateError{Entity: "account", ID: accountID, Version: version}
		}
		if err := chart.Reparent(account.ID, parentID); err != nil {
			return err
		}
		account.ParentAccountID = parentID
		return updateVersioned(ctx, tx, &account, "account", account.ID, &account.Version, "parent_account_id")
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeactivateAccount closes an account to new postings. Its history stays.
func (svc *PracticeService) DeactivateAccount(ctx context.Context, accountID, version int64) (*models.Account, error) {
	account, err := svc.FindAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Version != version {
		return nil, &common.ConcurrentUpdateError{Entity: "account", ID: accountID, Version: version}
	}
	account.IsActive = false
	if err := updateVersioned(ctx, svc.DB, account, "account", account.ID, &account.Version, "is_active"); err != nil {
		return nil, err
	}
	return account, nil
}

// loadChart reads every account into the in-memory tree. On Postgres the rows
// stay locked until the transaction ends so concurrent moves serialize.
func (svc *PracticeService) loadChart(ctx context.Context, tx bun.Tx) (*ledger.Chart, error) {
	var accounts []*models.Account
	if err := svc.forUpdate(tx.NewSelect().Model(&accounts)).Scan(ctx); err != nil {
		return nil, err
	}
	return ledger.LoadChart(accounts)
}

// PostJournalTransaction writes balanced lines under one new transaction id.
// Every account must exist and be active.
func (svc *PracticeService) PostJournalTransaction(ctx context.Context, body *schemas.JournalTransactionCreate) ([]*models.JournalEntry, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	lines := body.LedgerLines()
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.AccountID)
	}

	transactionID := uuid.New()
	entries := make([]*models.JournalEntry, len(lines))
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.User)(nil), "journal_entry", "created_by_id", body.CreatedByID); err != nil {
			return err
		}
		var accounts []*models.Account
		if err := tx.NewSelect().Model(&accounts).Where("acc.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
			return err
		}
		byID := make(map[int64]*models.Account, len(accounts))
		for _, a := range accounts {
			byID[a.ID] = a
		}
		now := models.Now()
		for i, l := range lines {
			account, ok := byID[l.AccountID]
			if !ok {
				return &common.ReferentialIntegrityError{Entity: "journal_entry", Field: "account_id", ID: l.AccountID}
			}
			if !account.IsActive {
				return &common.StateError{Entity: "account", ID: account.ID, State: "inactive", Action: "post to"}
			}
			entries[i] = &models.JournalEntry{
				TransactionID:   transactionID,
				AccountID:       l.AccountID,
				EntryDate:       body.EntryDate.UTC(),
				ReferenceNumber: body.ReferenceNumber,
				Description:     body.Description,
				DebitAmount:     l.Debit,
				CreditAmount:    l.Credit,
				SourceType:      body.SourceType,
				SourceID:        body.SourceID,
				CreatedAt:       now,
				CreatedByID:     body.CreatedByID,
			}
		}
		_, err := tx.NewInsert().Model(&entries).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	svc.Logger.Info().Str("transaction_id", transactionID.String()).Int("lines", len(entries)).Msg("journal transaction posted")
	for _, e := range entries {
		svc.published(ctx, "journal_entry", e.ID, e)
	}
	return entries, nil
}

// JournalTransaction returns the lines posted under transactionID.
func (svc *PracticeService) JournalTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.JournalEntry, error) {
	var entries []*models.JournalEntry
	err := svc.DB.NewSelect().
		Model(&entries).
		Where("je.transaction_id = ?", transactionID).
		Order("je.id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, common.ErrNotFound
	}
	return entries, nil
}

// TrialBalance totals every account, ordered by account number, with
// balances rolled up over sub-accounts.
func (svc *PracticeService) TrialBalance(ctx context.Context) (*ledger.TrialBalance, error) {
	var accounts []*models.Account
	if err := svc.DB.NewSelect().Model(&accounts).Order("acc.account_number").Scan(ctx); err != nil {
		return nil, err
	}
	chart, err := ledger.LoadChart(accounts)
	if err != nil {
		return nil, err
	}
	var entries []*models.JournalEntry
	if err := svc.DB.NewSelect().Model(&entries).Scan(ctx); err != nil {
		return nil, err
	}
	return ledger.BuildTrialBalance(chart, accounts, entries), nil
}
