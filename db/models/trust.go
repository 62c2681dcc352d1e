package models

import (
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/uptrace/bun"
)

// TrustAccount : client funds bank account (IOLTA)
type TrustAccount struct {
	bun.BaseModel `bun:"table:trust_accounts,alias:ta"`

	ID             int64        `json:"id" bun:",pk,autoincrement"`
	AccountName    string       `json:"account_name" bun:",type:varchar(200),notnull"`
	AccountNumber  string       `json:"account_number" bun:",type:varchar(100),notnull,unique"`
	BankName       string       `json:"bank_name" bun:",type:varchar(200),notnull"`
	CurrentBalance money.Amount `json:"current_balance" bun:",type:numeric(14,2),notnull"`
	IsActive       bool         `json:"is_active" bun:",notnull"`
	Version        int64        `json:"version" bun:",notnull"`
	CreatedAt      time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	TrustTransactions []*TrustTransaction `json:"-" bun:"rel:has-many,join:id=trust_account_id"`
}

func NewTrustAccount(name, number, bank string) *TrustAccount {
	return &TrustAccount{
		AccountName:    name,
		AccountNumber:  number,
		BankName:       bank,
		CurrentBalance: money.ZeroAmount(),
		IsActive:       true,
		Version:        1,
		CreatedAt:      Now(),
	}
}

// TrustTransaction : movement of trust funds for a case
type TrustTransaction struct {
	bun.BaseModel `bun:"table:trust_transactions,alias:tt"`

	ID              int64                  `json:"id" bun:",pk,autoincrement"`
	TrustAccountID  int64                  `json:"trust_account_id" bun:",notnull"`
	CaseID          int64                  `json:"case_id" bun:",notnull"`
	TransactionType common.TransactionType `json:"transaction_type" bun:",type:varchar(20),notnull"`
	Amount          money.Amount           `json:"amount" bun:",type:numeric(14,2),notnull"`
	Description     string                 `json:"description" bun:",type:varchar(500),notnull"`
	ReferenceNumber *string                `json:"reference_number" bun:",type:varchar(100)"`
	TransactionDate time.Time              `json:"transaction_date" bun:",notnull"`
	CreatedAt       time.Time              `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	TrustAccount *TrustAccount `json:"trust_account,omitempty" bun:"rel:belongs-to,join:trust_account_id=id"`
	Case         *Case         `json:"case,omitempty" bun:"rel:belongs-to,join:case_id=id"`
}

// NewTrustTransaction validates the amount for its type. Payments, refunds
// and billings carry a positive amount; an adjustment carries a signed,
// non-zero amount.
func NewTrustTransaction(trustAccountID, caseID int64, txType common.TransactionType, amount money.Amount, description string, date time.Time) (*TrustTransaction, error) {
	if txType == common.TransactionTypeAdjustment {
		if amount.IsZero() {
			return nil, common.NewValidationError("amount", "ne", "an adjustment must not be zero")
		}
	} else if !amount.IsPositive() {
		return nil, common.NewValidationError("amount", "gt", "amount must be greater than 0 for %s", txType)
	}
	return &TrustTransaction{
		TrustAccountID:  trustAccountID,
		CaseID:          caseID,
		TransactionType: txType,
		Amount:          amount,
		Description:     description,
		TransactionDate: utc(date),
		CreatedAt:       Now(),
	}, nil
}

// SignedAmount is the effect of the transaction on the account balance.
func (t *TrustTransaction) SignedAmount() money.Amount {
	switch t.TransactionType {
	case common.TransactionTypeRefund, common.TransactionTypeBilling:
		return t.Amount.Neg()
	}
	return t.Amount
}

// TrustBalance folds transactions into the balance they produce.
func TrustBalance(txs []*TrustTransaction) money.Amount {
	balance := money.ZeroAmount()
	for _, t := range txs {
		balance = balance.Add(t.SignedAmount())
	}
	return balance
}
