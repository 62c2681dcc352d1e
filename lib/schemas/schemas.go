package schemas

import (
	"strings"
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/money"
)

type UserCreate struct {
	Email      string          `json:"email" validate:"required,email,max=255"`
	FirstName  string          `json:"first_name" validate:"required,max=100"`
	LastName   string          `json:"last_name" validate:"required,max=100"`
	Role       common.UserRole `json:"role" validate:"required,enum"`
	Phone      *string         `json:"phone" validate:"omitempty,max=20"`
	HourlyRate *money.Amount   `json:"hourly_rate" validate:"omitempty,dgte"`
}

func (s *UserCreate) ToModel() *models.User {
	u := models.NewUser(strings.ToLower(s.Email), s.FirstName, s.LastName, s.Role)
	u.Phone = s.Phone
	u.HourlyRate = s.HourlyRate
	return u
}

type ClientCreate struct {
	ClientType       common.ClientType `json:"client_type" validate:"required,enum"`
	FirstName        *string           `json:"first_name" validate:"omitempty,max=100"`
	LastName         *string           `json:"last_name" validate:"omitempty,max=100"`
	OrganizationName *string           `json:"organization_name" validate:"omitempty,max=200"`
	Email            *string           `json:"email" validate:"omitempty,email,max=255"`
	Phone            *string           `json:"phone" validate:"omitempty,max=20"`
}

// Details selects the variant named by client_type.
func (s *ClientCreate) Details() models.ClientDetails {
	if s.ClientType == common.ClientTypeOrganization {
		return models.Organization{Name: value(s.OrganizationName)}
	}
	return models.Individual{FirstName: value(s.FirstName), LastName: value(s.LastName)}
}

func (s *ClientCreate) check() error {
	return checkDetails(s.ClientType, s.FirstName, s.LastName, s.OrganizationName)
}

func (s *ClientCreate) ToModel() (*models.Client, error) {
	return models.NewClient(s.Details(), models.ContactInfo{Email: s.Email, Phone: s.Phone})
}

// CaseCreate is the case payload. Beyond the core fields it accepts optional
// hourly_rate, flat_fee, contingency_percentage and retainer_amount. Omitted
// terms fall back to the case type default for billing_model, and a supplied
// term overrides it.
type CaseCreate struct {
	CaseNumber         string              `json:"case_number" validate:"required,max=100"`
	Title              string              `json:"title" validate:"required,max=500"`
	Description        *string             `json:"description" validate:"omitempty,max=2000"`
	ClientID           int64               `json:"client_id" validate:"required"`
	CaseTypeID         int64               `json:"case_type_id" validate:"required"`
	AssignedAttorneyID *int64              `json:"assigned_attorney_id"`
	BillingModel       common.BillingModel `json:"billing_model" validate:"required,enum"`

	HourlyRate            *money.Amount  `json:"hourly_rate" validate:"omitempty,dgte"`
	FlatFee               *money.Amount  `json:"flat_fee" validate:"omitempty,dgte"`
	ContingencyPercentage *money.Percent `json:"contingency_percentage" validate:"omitempty,pct"`
	RetainerAmount        *money.Amount  `json:"retainer_amount" validate:"omitempty,dgte"`
}

func (s *CaseCreate) Terms() models.BillingTerms {
	return models.BillingTerms{
		HourlyRate:            s.HourlyRate,
		FlatFee:               s.FlatFee,
		ContingencyPercentage: s.ContingencyPercentage,
		RetainerAmount:        s.RetainerAmount,
	}
}

func (s *CaseCreate) check() error {
	return s.Terms().Validate(s.BillingModel)
}

// ToModel fills missing terms from the case type defaults.
func (s *CaseCreate) ToModel(caseType *models.CaseType) (*models.Case, error) {
	terms := s.Terms()
	defaults := caseType.DefaultTerms(s.BillingModel)
	if terms.HourlyRate == nil {
		terms.HourlyRate = defaults.HourlyRate
	}
	if terms.FlatFee == nil {
		terms.FlatFee = defaults.FlatFee
	}
	c, err := models.NewCase(s.CaseNumber, s.Title, s.ClientID, s.CaseTypeID, s.BillingModel, terms)
	if err != nil {
		return nil, err
	}
	c.Description = s.Description
	c.AssignedAttorneyID = s.AssignedAttorneyID
	return c, nil
}

type ActivityCreate struct {
	CaseID             int64      `json:"case_id" validate:"required"`
	AssignedUserID     *int64     `json:"assigned_user_id"`
	Title              string     `json:"title" validate:"required,max=500"`
	Description        *string    `json:"description" validate:"omitempty,max=2000"`
	ActivityType       string     `json:"activity_type" validate:"required,max=100"`
	DueDate            *time.Time `json:"due_date"`
	IsCourtDate        bool       `json:"is_court_date"`
	IsCriticalDeadline bool       `json:"is_critical_deadline"`
}

func (s *ActivityCreate) ToModel() *models.Activity {
	a := models.NewActivity(s.CaseID, s.Title, s.ActivityType)
	a.AssignedUserID = s.AssignedUserID
	a.Description = s.Description
	a.SetDueDate(s.DueDate)
	a.IsCourtDate = s.IsCourtDate
	a.IsCriticalDeadline = s.IsCriticalDeadline
	return a
}

type TimeEntryCreate struct {
	ActivityID  int64         `json:"activity_id" validate:"required"`
	UserID      int64         `json:"user_id" validate:"required"`
	Hours       *money.Hours  `json:"hours" validate:"required,dgt"`
	RatePerHour *money.Amount `json:"rate_per_hour" validate:"required,dgte"`
	Description string        `json:"description" validate:"required,max=1000"`
	Date        time.Time     `json:"date" validate:"required"`
}

func (s *TimeEntryCreate) ToModel() (*models.TimeEntry, error) {
	return models.NewTimeEntry(s.ActivityID, s.UserID, *s.Hours, *s.RatePerHour, s.Description, s.Date)
}

type ExpenseCreate struct {
	CaseID           int64              `json:"case_id" validate:"required"`
	UserID           int64              `json:"user_id" validate:"required"`
	Description      string             `json:"description" validate:"required,max=500"`
	ExpenseType      common.ExpenseType `json:"expense_type" validate:"required,enum"`
	Amount           *money.Amount      `json:"amount" validate:"required,dgte"`
	MarkupPercentage *money.Percent     `json:"markup_percentage" validate:"required,dgte"`
	ExpenseDate      time.Time          `json:"expense_date" validate:"required"`
	Category         string             `json:"category" validate:"required,max=100"`
	Vendor           *string            `json:"vendor" validate:"omitempty,max=200"`
}

func (s *ExpenseCreate) applyDefaults() {
	if s.MarkupPercentage == nil {
		zero := money.MustPercent("0")
		s.MarkupPercentage = &zero
	}
}

func (s *ExpenseCreate) ToModel() (*models.Expense, error) {
	e, err := models.NewExpense(s.CaseID, s.UserID, s.Description, s.ExpenseType, *s.Amount, *s.MarkupPercentage, s.ExpenseDate, s.Category)
	if err != nil {
		return nil, err
	}
	e.Vendor = s.Vendor
	return e, nil
}

// InvoiceCreate opens a draft.
type InvoiceCreate struct {
	CaseID      int64     `json:"case_id" validate:"required"`
	InvoiceDate time.Time `json:"invoice_date" validate:"required"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	Notes       *string   `json:"notes" validate:"omitempty,max=2000"`
}

func (s *InvoiceCreate) check() error {
	if !s.InvoiceDate.IsZero() && !s.DueDate.IsZero() && s.DueDate.Before(s.InvoiceDate) {
		return common.NewValidationError("due_date", "gtefield", "due_date must not be before invoice_date")
	}
	return nil
}

// ToModel builds the draft invoice under the number the caller allocated.
func (s *InvoiceCreate) ToModel(invoiceNumber string) (*models.Invoice, error) {
	return models.NewInvoice(s.CaseID, invoiceNumber, s.InvoiceDate, s.DueDate, s.Notes)
}

// checkDetails rejects payloads that mix individual and organization fields.
func checkDetails(clientType common.ClientType, firstName, lastName, organizationName *string) error {
	var errs common.ValidationErrors
	switch clientType {
	case common.ClientTypeIndividual:
		if organizationName != nil {
			errs = append(errs, common.NewValidationError("organization_name", "excluded_if", "organization_name is not allowed for individual clients"))
		}
		if value(firstName) == "" {
			errs = append(errs, common.NewValidationError("first_name", "required_if", "first_name is required for individual clients"))
		}
		if value(lastName) == "" {
			errs = append(errs, common.NewValidationError("last_name", "required_if", "last_name is required for individual clients"))
		}
	case common.ClientTypeOrganization:
		if firstName != nil || lastName != nil {
			errs = append(errs, common.NewValidationError("first_name", "excluded_if", "first_name and last_name are not allowed for organization clients"))
		}
		if value(organizationName) == "" {
			errs = append(errs, common.NewValidationError("organization_name", "required_if", "organization_name is required for organization clients"))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
