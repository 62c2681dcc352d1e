package models

import (
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account : chart of accounts node. The parent is referenced by id only; the
// tree is assembled in lib/ledger.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID              int64              `json:"id" bun:",pk,autoincrement"`
	AccountNumber   string             `json:"account_number" bun:",type:varchar(20),notnull,unique"`
	AccountName     string             `json:"account_name" bun:",type:varchar(200),notnull"`
	AccountType     common.AccountType `json:"account_type" bun:",type:varchar(20),notnull"`
	ParentAccountID *int64             `json:"parent_account_id"`
	Description     *string            `json:"description" bun:",type:varchar(500)"`
	IsActive        bool               `json:"is_active" bun:",notnull"`
	Version         int64              `json:"version" bun:",notnull"`
	CreatedAt       time.Time          `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	JournalEntries []*JournalEntry `json:"-" bun:"rel:has-many,join:id=account_id"`
}

func NewAccount(number, name string, accountType common.AccountType, parentID *int64) *Account {
	return &Account{
		AccountNumber:   number,
		AccountName:     name,
		AccountType:     accountType,
		ParentAccountID: parentID,
		IsActive:        true,
		Version:         1,
		CreatedAt:       Now(),
	}
}

// JournalEntry : one side of a double-entry transaction. Entries sharing a
// TransactionID balance.
type JournalEntry struct {
	bun.BaseModel `bun:"table:journal_entries,alias:je"`

	ID              int64        `json:"id" bun:",pk,autoincrement"`
	TransactionID   uuid.UUID    `json:"transaction_id" bun:",type:uuid,notnull"`
	AccountID       int64        `json:"account_id" bun:",notnull"`
	EntryDate       time.Time    `json:"entry_date" bun:",notnull"`
	ReferenceNumber *string      `json:"reference_number" bun:",type:varchar(100)"`
	Description     string       `json:"description" bun:",type:varchar(500),notnull"`
	DebitAmount     money.Amount `json:"debit_amount" bun:",type:numeric(14,2),notnull"`
	CreditAmount    money.Amount `json:"credit_amount" bun:",type:numeric(14,2),notnull"`
	SourceType      *string      `json:"source_type" bun:",type:varchar(50)"`
	SourceID        *int64       `json:"source_id"`
	CreatedAt       time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	CreatedByID     int64        `json:"created_by_id" bun:",notnull"`

	Account   *Account `json:"account,omitempty" bun:"rel:belongs-to,join:account_id=id"`
	CreatedBy *User    `json:"-" bun:"rel:belongs-to,join:created_by_id=id"`
}

// Net is debit minus credit.
func (e *JournalEntry) Net() money.Amount {
	return e.DebitAmount.Sub(e.CreditAmount)
}
