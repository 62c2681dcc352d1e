package models

import (
	"context"
	"strings"
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/uptrace/bun"
)

// ClientDetails is either an Individual or an Organization. Clients and
// opposing parties store it as flat columns; the variant decides which of
// those columns are meaningful.
type ClientDetails interface {
	ClientType() common.ClientType
	validate() error
}

type Individual struct {
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
}

func (Individual) ClientType() common.ClientType { return common.ClientTypeIndividual }

func (i Individual) validate() error {
	var errs common.ValidationErrors
	if strings.TrimSpace(i.FirstName) == "" {
		errs = append(errs, common.NewValidationError("first_name", "required", "first_name is required for individual clients"))
	}
	if strings.TrimSpace(i.LastName) == "" {
		errs = append(errs, common.NewValidationError("last_name", "required", "last_name is required for individual clients"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type Organization struct {
	Name  string
	TaxID *string
}

func (Organization) ClientType() common.ClientType { return common.ClientTypeOrganization }

func (o Organization) validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return common.ValidationErrors{
			common.NewValidationError("organization_name", "required", "organization_name is required for organization clients"),
		}
	}
	return nil
}

// ContactInfo holds the optional address block shared by clients and parties.
type ContactInfo struct {
	Email        *string
	Phone        *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	ZipCode      *string
	Country      *string
}

// Client : individual or organization being represented
type Client struct {
	bun.BaseModel `bun:"table:clients,alias:cl"`

	ID         int64             `json:"id" bun:",pk,autoincrement"`
	ClientType common.ClientType `json:"client_type" bun:",type:varchar(20),notnull"`

	FirstName   *string    `json:"first_name" bun:",type:varchar(100)"`
	LastName    *string    `json:"last_name" bun:",type:varchar(100)"`
	DateOfBirth *time.Time `json:"date_of_birth" bun:",nullzero"`

	OrganizationName *string `json:"organization_name" bun:",type:varchar(200)"`
	TaxID            *string `json:"tax_id" bun:",type:varchar(50)"`

	Email        *string `json:"email" bun:",type:varchar(255)"`
	Phone        *string `json:"phone" bun:",type:varchar(20)"`
	AddressLine1 *string `json:"address_line1" bun:"address_line1,type:varchar(255)"`
	AddressLine2 *string `json:"address_line2" bun:"address_line2,type:varchar(255)"`
	City         *string `json:"city" bun:",type:varchar(100)"`
	State        *string `json:"state" bun:",type:varchar(50)"`
	ZipCode      *string `json:"zip_code" bun:",type:varchar(20)"`
	Country      *string `json:"country" bun:",type:varchar(100)"`

	IsActive  bool      `json:"is_active" bun:",notnull"`
	CreatedAt time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`

	Cases                    []*Case                    `json:"-" bun:"rel:has-many,join:id=client_id"`
	BeneficiaryRelationships []*BeneficiaryRelationship `json:"-" bun:"rel:has-many,join:id=beneficiary_id"`
	DependentRelationships   []*BeneficiaryRelationship `json:"-" bun:"rel:has-many,join:id=dependent_id"`
}

// NewClient builds a client whose columns are consistent with its details
// variant: an individual never carries organization columns and vice versa.
func NewClient(details ClientDetails, contact ContactInfo) (*Client, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}
	now := Now()
	c := &Client{
		Email:        contact.Email,
		Phone:        contact.Phone,
		AddressLine1: contact.AddressLine1,
		AddressLine2: contact.AddressLine2,
		City:         contact.City,
		State:        contact.State,
		ZipCode:      contact.ZipCode,
		Country:      contact.Country,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.setDetails(details)
	return c, nil
}

func (c *Client) setDetails(details ClientDetails) {
	c.ClientType = details.ClientType()
	c.FirstName, c.LastName, c.DateOfBirth = nil, nil, nil
	c.OrganizationName, c.TaxID = nil, nil
	switch d := details.(type) {
	case Individual:
		c.FirstName = &d.FirstName
		c.LastName = &d.LastName
		c.DateOfBirth = utcPtr(d.DateOfBirth)
	case Organization:
		c.OrganizationName = &d.Name
		c.TaxID = d.TaxID
	}
}

// Details reads the stored columns back as the variant selected by client_type.
func (c *Client) Details() ClientDetails {
	if c.ClientType == common.ClientTypeOrganization {
		return Organization{Name: deref(c.OrganizationName), TaxID: c.TaxID}
	}
	return Individual{FirstName: deref(c.FirstName), LastName: deref(c.LastName), DateOfBirth: c.DateOfBirth}
}

// DisplayName is the name used on invoices and correspondence.
func (c *Client) DisplayName() string {
	switch d := c.Details().(type) {
	case Organization:
		return d.Name
	case Individual:
		return strings.TrimSpace(d.FirstName + " " + d.LastName)
	}
	return ""
}

func (c *Client) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		c.UpdatedAt = Now()
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Client)(nil)

// BeneficiaryRelationship links two clients, e.g. a spouse or a dependent.
type BeneficiaryRelationship struct {
	bun.BaseModel `bun:"table:beneficiary_relationships,alias:br"`

	ID               int64     `json:"id" bun:",pk,autoincrement"`
	BeneficiaryID    int64     `json:"beneficiary_id" bun:",notnull"`
	DependentID      int64     `json:"dependent_id" bun:",notnull"`
	RelationshipType string    `json:"relationship_type" bun:",type:varchar(50),notnull"`
	CreatedAt        time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	Beneficiary *Client `json:"beneficiary,omitempty" bun:"rel:belongs-to,join:beneficiary_id=id"`
	Dependent   *Client `json:"dependent,omitempty" bun:"rel:belongs-to,join:dependent_id=id"`
}

func NewBeneficiaryRelationship(beneficiaryID, dependentID int64, relationshipType string) (*BeneficiaryRelationship, error) {
	if beneficiaryID == dependentID {
		return nil, common.NewValidationError("dependent_id", "nefield", "a client cannot be its own dependent")
	}
	return &BeneficiaryRelationship{
		BeneficiaryID:    beneficiaryID,
		DependentID:      dependentID,
		RelationshipType: relationshipType,
		CreatedAt:        Now(),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
