package models

import (
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/uptrace/bun"
)

// Counsel is the adverse party's legal representation.
type Counsel struct {
	Name  *string
	Firm  *string
	Email *string
	Phone *string
}

// OpposingParty : adverse party and counsel on a case
type OpposingParty struct {
	bun.BaseModel `bun:"table:opposing_parties,alias:op"`

	ID        int64             `json:"id" bun:",pk,autoincrement"`
	CaseID    int64             `json:"case_id" bun:",notnull"`
	PartyType common.ClientType `json:"party_type" bun:",type:varchar(20),notnull"`

	FirstName        *string `json:"first_name" bun:",type:varchar(100)"`
	LastName         *string `json:"last_name" bun:",type:varchar(100)"`
	OrganizationName *string `json:"organization_name" bun:",type:varchar(200)"`

	Email        *string `json:"email" bun:",type:varchar(255)"`
	Phone        *string `json:"phone" bun:",type:varchar(20)"`
	AddressLine1 *string `json:"address_line1" bun:"address_line1,type:varchar(255)"`
	City         *string `json:"city" bun:",type:varchar(100)"`
	State        *string `json:"state" bun:",type:varchar(50)"`

	CounselName  *string `json:"counsel_name" bun:",type:varchar(200)"`
	CounselFirm  *string `json:"counsel_firm" bun:",type:varchar(200)"`
	CounselEmail *string `json:"counsel_email" bun:",type:varchar(255)"`
	CounselPhone *string `json:"counsel_phone" bun:",type:varchar(20)"`

	CreatedAt time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	Case *Case `json:"case,omitempty" bun:"rel:belongs-to,join:case_id=id"`
}

// NewOpposingParty builds a party from its details variant. Date of birth and
// tax id are not tracked for adverse parties and are dropped.
func NewOpposingParty(caseID int64, details ClientDetails, contact ContactInfo, counsel Counsel) (*OpposingParty, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}
	p := &OpposingParty{
		CaseID:       caseID,
		PartyType:    details.ClientType(),
		Email:        contact.Email,
		Phone:        contact.Phone,
		AddressLine1: contact.AddressLine1,
		City:         contact.City,
		State:        contact.State,
		CounselName:  counsel.Name,
		CounselFirm:  counsel.Firm,
		CounselEmail: counsel.Email,
		CounselPhone: counsel.Phone,
		CreatedAt:    Now(),
	}
	switch d := details.(type) {
	case Individual:
		p.FirstName, p.LastName = &d.FirstName, &d.LastName
	case Organization:
		p.OrganizationName = &d.Name
	}
	return p, nil
}

func (p *OpposingParty) PartyDetails() ClientDetails {
	if p.PartyType == common.ClientTypeOrganization {
		return Organization{Name: deref(p.OrganizationName)}
	}
	return Individual{FirstName: deref(p.FirstName), LastName: deref(p.LastName)}
}
