package models

import (
	"context"
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/uptrace/bun"
)

// CaseType : billing defaults for a practice area
type CaseType struct {
	bun.BaseModel `bun:"table:case_types,alias:ct"`

	ID                  int64               `json:"id" bun:",pk,autoincrement"`
	Name                string              `json:"name" bun:",type:varchar(200),notnull"`
	Description         *string             `json:"description" bun:",type:varchar(1000)"`
	DefaultBillingModel common.BillingModel `json:"default_billing_model" bun:",type:varchar(20),notnull"`
	DefaultHourlyRate   *money.Amount       `json:"default_hourly_rate" bun:",type:numeric(12,2)"`
	DefaultFlatFee      *money.Amount       `json:"default_flat_fee" bun:",type:numeric(12,2)"`
	IsActive            bool                `json:"is_active" bun:",notnull"`
	CreatedAt           time.Time           `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	Cases []*Case `json:"-" bun:"rel:has-many,join:id=case_type_id"`
}

func NewCaseType(name string, billingModel common.BillingModel) *CaseType {
	return &CaseType{
		Name:                name,
		DefaultBillingModel: billingModel,
		IsActive:            true,
		CreatedAt:           Now(),
	}
}

// BillingTerms are the pricing fields of a case. Only the field matching the
// billing model may be set.
type BillingTerms struct {
	HourlyRate            *money.Amount
	FlatFee               *money.Amount
	ContingencyPercentage *money.Percent
	RetainerAmount        *money.Amount
}

// Validate rejects terms that belong to a different billing model.
func (t BillingTerms) Validate(model common.BillingModel) error {
	var errs common.ValidationErrors
	reject := func(field string, set bool, allowed common.BillingModel) {
		if set && model != allowed {
			errs = append(errs, common.NewValidationError(field, "billing_model", "%s does not apply to %s billing", field, model))
		}
	}
	reject("hourly_rate", t.HourlyRate != nil, common.BillingModelHourly)
	reject("flat_fee", t.FlatFee != nil, common.BillingModelFlatFee)
	reject("contingency_percentage", t.ContingencyPercentage != nil, common.BillingModelContingency)
	reject("retainer_amount", t.RetainerAmount != nil, common.BillingModelRetainer)

	if t.ContingencyPercentage != nil {
		p := t.ContingencyPercentage.Decimal
		if p.IsNegative() || p.GreaterThan(money.MustPercent("100").Decimal) {
			errs = append(errs, common.NewValidationError("contingency_percentage", "range", "must be between 0 and 100"))
		}
	}
	amounts := []struct {
		field string
		value *money.Amount
	}{
		{"hourly_rate", t.HourlyRate},
		{"flat_fee", t.FlatFee},
		{"retainer_amount", t.RetainerAmount},
	}
	for _, a := range amounts {
		if a.value != nil && a.value.IsNegative() {
			errs = append(errs, common.NewValidationError(a.field, "gte", "%s must not be negative", a.field))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DefaultTerms returns the terms a new case of this type starts with.
func (ct *CaseType) DefaultTerms(model common.BillingModel) BillingTerms {
	switch model {
	case common.BillingModelHourly:
		return BillingTerms{HourlyRate: ct.DefaultHourlyRate}
	case common.BillingModelFlatFee:
		return BillingTerms{FlatFee: ct.DefaultFlatFee}
	}
	return BillingTerms{}
}

// Case : central matter record
type Case struct {
	bun.BaseModel `bun:"table:cases,alias:c"`

	ID          int64             `json:"id" bun:",pk,autoincrement"`
	CaseNumber  string            `json:"case_number" bun:",type:varchar(100),notnull,unique"`
	Title       string            `json:"title" bun:",type:varchar(500),notnull"`
	Description *string           `json:"description" bun:",type:varchar(2000)"`
	Status      common.CaseStatus `json:"status" bun:",type:varchar(20),notnull"`

	ClientID           int64  `json:"client_id" bun:",notnull"`
	CaseTypeID         int64  `json:"case_type_id" bun:",notnull"`
	AssignedAttorneyID *int64 `json:"assigned_attorney_id"`

	BillingModel          common.BillingModel `json:"billing_model" bun:",type:varchar(20),notnull"`
	HourlyRate            *money.Amount       `json:"hourly_rate" bun:",type:numeric(12,2)"`
	FlatFee               *money.Amount       `json:"flat_fee" bun:",type:numeric(12,2)"`
	ContingencyPercentage *money.Percent      `json:"contingency_percentage" bun:",type:numeric(5,2)"`
	RetainerAmount        *money.Amount       `json:"retainer_amount" bun:",type:numeric(12,2)"`

	OpenedDate bun.NullTime `json:"opened_date"`
	ClosedDate bun.NullTime `json:"closed_date"`
	Version    int64        `json:"version" bun:",notnull"`
	CreatedAt  time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time    `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`

	Client            *Client             `json:"client,omitempty" bun:"rel:belongs-to,join:client_id=id"`
	CaseType          *CaseType           `json:"case_type,omitempty" bun:"rel:belongs-to,join:case_type_id=id"`
	AssignedAttorney  *User               `json:"assigned_attorney,omitempty" bun:"rel:belongs-to,join:assigned_attorney_id=id"`
	Activities        []*Activity         `json:"-" bun:"rel:has-many,join:id=case_id"`
	Expenses          []*Expense          `json:"-" bun:"rel:has-many,join:id=case_id"`
	Documents         []*Document         `json:"-" bun:"rel:has-many,join:id=case_id"`
	OpposingParties   []*OpposingParty    `json:"-" bun:"rel:has-many,join:id=case_id"`
	Jurisdictions     []*CaseJurisdiction `json:"-" bun:"rel:has-many,join:id=case_id"`
	Invoices          []*Invoice          `json:"-" bun:"rel:has-many,join:id=case_id"`
	TrustTransactions []*TrustTransaction `json:"-" bun:"rel:has-many,join:id=case_id"`
}

func NewCase(caseNumber, title string, clientID, caseTypeID int64, model common.BillingModel, terms BillingTerms) (*Case, error) {
	if err := terms.Validate(model); err != nil {
		return nil, err
	}
	now := Now()
	return &Case{
		CaseNumber:            caseNumber,
		Title:                 title,
		Status:                common.CaseStatusPending,
		ClientID:              clientID,
		CaseTypeID:            caseTypeID,
		BillingModel:          model,
		HourlyRate:            terms.HourlyRate,
		FlatFee:               terms.FlatFee,
		ContingencyPercentage: terms.ContingencyPercentage,
		RetainerAmount:        terms.RetainerAmount,
		Version:               1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

func (c *Case) Terms() BillingTerms {
	return BillingTerms{
		HourlyRate:            c.HourlyRate,
		FlatFee:               c.FlatFee,
		ContingencyPercentage: c.ContingencyPercentage,
		RetainerAmount:        c.RetainerAmount,
	}
}

// Transition moves the case to status, stamping opened and closed dates.
// A closed case cannot be reopened.
func (c *Case) Transition(status common.CaseStatus) error {
	if c.Status.IsClosed() && status != c.Status {
		return &common.StateError{Entity: "case", ID: c.ID, State: string(c.Status), Action: "move to " + string(status)}
	}
	now := Now()
	switch {
	case status == common.CaseStatusActive && c.OpenedDate.IsZero():
		c.OpenedDate = bun.NullTime{Time: now}
	case status.IsClosed():
		if c.OpenedDate.IsZero() {
			c.OpenedDate = bun.NullTime{Time: now}
		}
		c.ClosedDate = bun.NullTime{Time: now}
	}
	c.Status = status
	return nil
}

// Assign hands an open case to attorneyID.
func (c *Case) Assign(attorneyID int64) error {
	if c.Status.IsClosed() {
		return &common.StateError{Entity: "case", ID: c.ID, State: string(c.Status), Action: "assign an attorney to"}
	}
	c.AssignedAttorneyID = &attorneyID
	return nil
}

func (c *Case) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		c.UpdatedAt = Now()
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Case)(nil)
