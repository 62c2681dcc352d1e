package schemas

import (
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/ledger"
	"github.com/counselhub/counselhub.go/lib/money"
)

type CaseTypeCreate struct {
	Name                string              `json:"name" validate:"required,max=200"`
	Description         *string             `json:"description" validate:"omitempty,max=1000"`
	DefaultBillingModel common.BillingModel `json:"default_billing_model" validate:"required,enum"`
	DefaultHourlyRate   *money.Amount       `json:"default_hourly_rate" validate:"omitempty,dgte"`
	DefaultFlatFee      *money.Amount       `json:"default_flat_fee" validate:"omitempty,dgte"`
}

func (s *CaseTypeCreate) ToModel() *models.CaseType {
	ct := models.NewCaseType(s.Name, s.DefaultBillingModel)
	ct.Description = s.Description
	ct.DefaultHourlyRate = s.DefaultHourlyRate
	ct.DefaultFlatFee = s.DefaultFlatFee
	return ct
}

type BeneficiaryCreate struct {
	BeneficiaryID    int64  `json:"beneficiary_id" validate:"required"`
	DependentID      int64  `json:"dependent_id" validate:"required,nefield=BeneficiaryID"`
	RelationshipType string `json:"relationship_type" validate:"required,max=50"`
}

func (s *BeneficiaryCreate) ToModel() (*models.BeneficiaryRelationship, error) {
	return models.NewBeneficiaryRelationship(s.BeneficiaryID, s.DependentID, s.RelationshipType)
}

type OpposingPartyCreate struct {
	CaseID           int64             `json:"case_id" validate:"required"`
	PartyType        common.ClientType `json:"party_type" validate:"required,enum"`
	FirstName        *string           `json:"first_name" validate:"omitempty,max=100"`
	LastName         *string           `json:"last_name" validate:"omitempty,max=100"`
	OrganizationName *string           `json:"organization_name" validate:"omitempty,max=200"`
	Email            *string           `json:"email" validate:"omitempty,email,max=255"`
	Phone            *string           `json:"phone" validate:"omitempty,max=20"`
	AddressLine1     *string           `json:"address_line1" validate:"omitempty,max=255"`
	City             *string           `json:"city" validate:"omitempty,max=100"`
	State            *string           `json:"state" validate:"omitempty,max=50"`
	CounselName      *string           `json:"counsel_name" validate:"omitempty,max=200"`
	CounselFirm      *string           `json:"counsel_firm" validate:"omitempty,max=200"`
	CounselEmail     *string           `json:"counsel_email" validate:"omitempty,email,max=255"`
	CounselPhone     *string           `json:"counsel_phone" validate:"omitempty,max=20"`
}

func (s *OpposingPartyCreate) check() error {
	return checkDetails(s.PartyType, s.FirstName, s.LastName, s.OrganizationName)
}

func (s *OpposingPartyCreate) ToModel() (*models.OpposingParty, error) {
	var details models.ClientDetails = models.Individual{FirstName: value(s.FirstName), LastName: value(s.LastName)}
	if s.PartyType == common.ClientTypeOrganization {
		details = models.Organization{Name: value(s.OrganizationName)}
	}
	contact := models.ContactInfo{Email: s.Email, Phone: s.Phone, AddressLine1: s.AddressLine1, City: s.City, State: s.State}
	counsel := models.Counsel{Name: s.CounselName, Firm: s.CounselFirm, Email: s.CounselEmail, Phone: s.CounselPhone}
	return models.NewOpposingParty(s.CaseID, details, contact, counsel)
}

type JurisdictionCreate struct {
	Name             string  `json:"name" validate:"required,max=200"`
	JurisdictionType string  `json:"jurisdiction_type" validate:"required,oneof=federal state local"`
	Description      *string `json:"description" validate:"omitempty,max=500"`
}

func (s *JurisdictionCreate) ToModel() *models.Jurisdiction {
	return models.NewJurisdiction(s.Name, s.JurisdictionType, s.Description)
}

type CaseJurisdictionCreate struct {
	CaseID         int64 `json:"case_id" validate:"required"`
	JurisdictionID int64 `json:"jurisdiction_id" validate:"required"`
	IsPrimary      bool  `json:"is_primary"`
}

func (s *CaseJurisdictionCreate) ToModel() *models.CaseJurisdiction {
	return models.NewCaseJurisdiction(s.CaseID, s.JurisdictionID, s.IsPrimary)
}

type DocumentCreate struct {
	CaseID       int64   `json:"case_id" validate:"required"`
	Title        string  `json:"title" validate:"required,max=500"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	FilePath     string  `json:"file_path" validate:"required,max=1000"`
	FileName     string  `json:"file_name" validate:"required,max=255"`
	FileSize     int64   `json:"file_size" validate:"gte=0"`
	MimeType     string  `json:"mime_type" validate:"required,max=100"`
	UploadedByID int64   `json:"uploaded_by_id" validate:"required"`
}

func (s *DocumentCreate) ToModel() *models.Document {
	return &models.Document{
		CaseID:       s.CaseID,
		Title:        s.Title,
		Description:  s.Description,
		FilePath:     s.FilePath,
		FileName:     s.FileName,
		FileSize:     s.FileSize,
		MimeType:     s.MimeType,
		UploadedByID: s.UploadedByID,
		UploadedAt:   models.Now(),
	}
}

type TrustAccountCreate struct {
	AccountName   string `json:"account_name" validate:"required,max=200"`
	AccountNumber string `json:"account_number" validate:"required,max=100"`
	BankName      string `json:"bank_name" validate:"required,max=200"`
}

func (s *TrustAccountCreate) ToModel() *models.TrustAccount {
	return models.NewTrustAccount(s.AccountName, s.AccountNumber, s.BankName)
}

type TrustTransactionCreate struct {
	TrustAccountID  int64                  `json:"trust_account_id" validate:"required"`
	CaseID          int64                  `json:"case_id" validate:"required"`
	TransactionType common.TransactionType `json:"transaction_type" validate:"required,enum"`
	Amount          *money.Amount          `json:"amount" validate:"required"`
	Description     string                 `json:"description" validate:"required,max=500"`
	ReferenceNumber *string                `json:"reference_number" validate:"omitempty,max=100"`
	TransactionDate time.Time              `json:"transaction_date" validate:"required"`
}

func (s *TrustTransactionCreate) ToModel() (*models.TrustTransaction, error) {
	tx, err := models.NewTrustTransaction(s.TrustAccountID, s.CaseID, s.TransactionType, *s.Amount, s.Description, s.TransactionDate)
	if err != nil {
		return nil, err
	}
	tx.ReferenceNumber = s.ReferenceNumber
	return tx, nil
}

type AccountCreate struct {
	AccountNumber   string             `json:"account_number" validate:"required,max=20"`
	AccountName     string             `json:"account_name" validate:"required,max=200"`
	AccountType     common.AccountType `json:"account_type" validate:"required,enum"`
	ParentAccountID *int64             `json:"parent_account_id"`
	Description     *string            `json:"description" validate:"omitempty,max=500"`
}

func (s *AccountCreate) ToModel() *models.Account {
	a := models.NewAccount(s.AccountNumber, s.AccountName, s.AccountType, s.ParentAccountID)
	a.Description = s.Description
	return a
}

type JournalLineCreate struct {
	AccountID    int64         `json:"account_id" validate:"required"`
	DebitAmount  *money.Amount `json:"debit_amount" validate:"omitempty,dgte"`
	CreditAmount *money.Amount `json:"credit_amount" validate:"omitempty,dgte"`
}

// JournalTransactionCreate posts balanced lines sharing one transaction id.
type JournalTransactionCreate struct {
	EntryDate       time.Time           `json:"entry_date" validate:"required"`
	Description     string              `json:"description" validate:"required,max=500"`
	ReferenceNumber *string             `json:"reference_number" validate:"omitempty,max=100"`
	SourceType      *string             `json:"source_type" validate:"omitempty,max=50"`
	SourceID        *int64              `json:"source_id"`
	CreatedByID     int64               `json:"created_by_id" validate:"required"`
	Lines           []JournalLineCreate `json:"lines" validate:"required,min=2,dive"`
}

func (s *JournalTransactionCreate) applyDefaults() {
	for i := range s.Lines {
		if s.Lines[i].DebitAmount == nil {
			zero := money.ZeroAmount()
			s.Lines[i].DebitAmount = &zero
		}
		if s.Lines[i].CreditAmount == nil {
			zero := money.ZeroAmount()
			s.Lines[i].CreditAmount = &zero
		}
	}
}

// LedgerLines is the double-entry view of the payload. Missing amounts read
// as zero.
func (s *JournalTransactionCreate) LedgerLines() []ledger.Line {
	lines := make([]ledger.Line, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = ledger.Line{AccountID: l.AccountID, Debit: orZero(l.DebitAmount), Credit: orZero(l.CreditAmount)}
	}
	return lines
}

func (s *JournalTransactionCreate) check() error {
	if len(s.Lines) < 2 {
		// reported by the min tag
		return nil
	}
	return ledger.ValidateLines(s.LedgerLines())
}

func orZero(a *money.Amount) money.Amount {
	if a == nil {
		return money.ZeroAmount()
	}
	return *a
}
