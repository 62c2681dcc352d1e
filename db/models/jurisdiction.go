package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Jurisdiction : court or venue catalog entry
type Jurisdiction struct {
	bun.BaseModel `bun:"table:jurisdictions,alias:j"`

	ID               int64     `json:"id" bun:",pk,autoincrement"`
	Name             string    `json:"name" bun:",type:varchar(200),notnull"`
	JurisdictionType string    `json:"jurisdiction_type" bun:",type:varchar(50),notnull"`
	Description      *string   `json:"description" bun:",type:varchar(500)"`
	CreatedAt        time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	CaseJurisdictions []*CaseJurisdiction `json:"-" bun:"rel:has-many,join:id=jurisdiction_id"`
}

func NewJurisdiction(name, jurisdictionType string, description *string) *Jurisdiction {
	return &Jurisdiction{
		Name:             name,
		JurisdictionType: jurisdictionType,
		Description:      description,
		CreatedAt:        Now(),
	}
}

// CaseJurisdiction joins a case to a venue. A case has at most one primary venue.
type CaseJurisdiction struct {
	bun.BaseModel `bun:"table:case_jurisdictions,alias:cj"`

	ID             int64     `json:"id" bun:",pk,autoincrement"`
	CaseID         int64     `json:"case_id" bun:",notnull"`
	JurisdictionID int64     `json:"jurisdiction_id" bun:",notnull"`
	IsPrimary      bool      `json:"is_primary" bun:",notnull"`
	CreatedAt      time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	Case         *Case         `json:"case,omitempty" bun:"rel:belongs-to,join:case_id=id"`
	Jurisdiction *Jurisdiction `json:"jurisdiction,omitempty" bun:"rel:belongs-to,join:jurisdiction_id=id"`
}

func NewCaseJurisdiction(caseID, jurisdictionID int64, primary bool) *CaseJurisdiction {
	return &CaseJurisdiction{
		CaseID:         caseID,
		JurisdictionID: jurisdictionID,
		IsPrimary:      primary,
		CreatedAt:      Now(),
	}
}
