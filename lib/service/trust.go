package service

import (
	"context"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/uptrace/bun"
)

func (svc *PracticeService) CreateTrustAccount(ctx context.Context, body *schemas.TrustAccountCreate) (*models.TrustAccount, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	account := body.ToModel()
	if err := insert(ctx, svc.DB, account, "trust_account", "account_number", account.AccountNumber); err != nil {
		return nil, err
	}
	svc.published(ctx, "trust_account", account.ID, account)
	return account, nil
}

func (svc *PracticeService) FindTrustAccount(ctx context.Context, accountID int64) (*models.TrustAccount, error) {
	var account models.TrustAccount
	if err := load(ctx, svc.DB, &account, accountID); err != nil {
		return nil, err
	}
	return &account, nil
}

// RecordTrustTransaction moves client funds and updates the account balance
// in the same transaction. Neither the account nor the case's share of it
// may go below zero.
func (svc *PracticeService) RecordTrustTransaction(ctx context.Context, body *schemas.TrustTransactionCreate) (*models.TrustTransaction, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	trustTx, err := body.ToModel()
	if err != nil {
		return nil, err
	}
	err = svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var account models.TrustAccount
		err := svc.forUpdate(tx.NewSelect().Model(&account).Where("ta.id = ?", trustTx.TrustAccountID)).Limit(1).Scan(ctx)
		if notFound(err) == common.ErrNotFound {
			return &common.ReferentialIntegrityError{Entity: "trust_transaction", Field: "trust_account_id", ID: trustTx.TrustAccountID}
		}
		if err != nil {
			return err
		}
		if !account.IsActive {
			return &common.StateError{Entity: "trust_account", ID: account.ID, State: "inactive", Action: "record a transaction on"}
		}
		if err := requireRef(ctx, tx, (*models.Case)(nil), "trust_transaction", "case_id", trustTx.CaseID); err != nil {
			return err
		}

		delta := trustTx.SignedAmount()
		if delta.IsNegative() {
			held, err := caseShare(ctx, tx, account.ID, trustTx.CaseID)
			if err != nil {
				return err
			}
			if held.Add(delta).IsNegative() {
				return &common.InsufficientTrustFundsError{
					TrustAccountID: account.ID,
					CaseID:         trustTx.CaseID,
					Available:      held.String(),
					Requested:      delta.Neg().String(),
				}
			}
			if account.CurrentBalance.Add(delta).IsNegative() {
				return &common.InsufficientTrustFundsError{
					TrustAccountID: account.ID,
					Available:      account.CurrentBalance.String(),
					Requested:      delta.Neg().String(),
				}
			}
		}

		if err := insert(ctx, tx, trustTx, "trust_transaction", "id", ""); err != nil {
			return err
		}
		account.CurrentBalance = account.CurrentBalance.Add(delta)
		return updateVersioned(ctx, tx, &account, "trust_account", account.ID, &account.Version, "current_balance")
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "trust_transaction", trustTx.ID, trustTx)
	return trustTx, nil
}

// CaseTrustBalance is the amount a case holds in a trust account.
func (svc *PracticeService) CaseTrustBalance(ctx context.Context, trustAccountID, caseID int64) (money.Amount, error) {
	return caseShare(ctx, svc.DB, trustAccountID, caseID)
}

func caseShare(ctx context.Context, db bun.IDB, trustAccountID, caseID int64) (money.Amount, error) {
	var txs []*models.TrustTransaction
	err := db.NewSelect().
		Model(&txs).
		Where("tt.trust_account_id = ?", trustAccountID).
		Where("tt.case_id = ?", caseID).
		Scan(ctx)
	if err != nil {
		return money.ZeroAmount(), err
	}
	return models.TrustBalance(txs), nil
}

// TrustReconciliation compares the stored balance of a trust account with the
// balance its transactions add up to.
type TrustReconciliation struct {
	TrustAccountID int64        `json:"trust_account_id"`
	AccountNumber  string       `json:"account_number"`
	Recorded       money.Amount `json:"recorded"`
	Computed       money.Amount `json:"computed"`
	Drift          money.Amount `json:"drift"`
	Transactions   int          `json:"transactions"`
}

func (r *TrustReconciliation) InBalance() bool {
	return r.Drift.IsZero()
}

func (svc *PracticeService) ReconcileTrustAccount(ctx context.Context, trustAccountID int64) (*TrustReconciliation, error) {
	account, err := svc.FindTrustAccount(ctx, trustAccountID)
	if err != nil {
		return nil, err
	}
	var txs []*models.TrustTransaction
	if err := svc.DB.NewSelect().Model(&txs).Where("tt.trust_account_id = ?", account.ID).Scan(ctx); err != nil {
		return nil, err
	}
	computed := models.TrustBalance(txs)
	rec := &TrustReconciliation{
		TrustAccountID: account.ID,
		AccountNumber:  account.AccountNumber,
		Recorded:       account.CurrentBalance,
		Computed:       computed,
		Drift:          account.CurrentBalance.Sub(computed),
		Transactions:   len(txs),
	}
	drift, _ := rec.Drift.Float64()
	svc.Metrics.TrustDrift.WithLabelValues(account.AccountNumber).Set(drift)
	if !rec.InBalance() {
		svc.Logger.Error().
			Int64("trust_account_id", account.ID).
			Str("recorded", rec.Recorded.String()).
			Str("computed", rec.Computed.String()).
			Msg("trust account out of balance")
	}
	return rec, nil
}

// ReconcileTrustAccounts checks every active trust account.
func (svc *PracticeService) ReconcileTrustAccounts(ctx context.Context) ([]*TrustReconciliation, error) {
	var accounts []*models.TrustAccount
	if err := svc.DB.NewSelect().Model(&accounts).Where("ta.is_active = ?", true).Order("ta.id").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*TrustReconciliation, 0, len(accounts))
	for _, a := range accounts {
		rec, err := svc.ReconcileTrustAccount(ctx, a.ID)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
