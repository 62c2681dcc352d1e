package service

import (
	"context"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/uptrace/bun"
)

func (svc *PracticeService) CreateJurisdiction(ctx context.Context, body *schemas.JurisdictionCreate) (*models.Jurisdiction, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	j := body.ToModel()
	if err := insert(ctx, svc.DB, j, "jurisdiction", "name", j.Name); err != nil {
		return nil, err
	}
	svc.published(ctx, "jurisdiction", j.ID, j)
	return j, nil
}

// AddCaseJurisdiction files a case in a venue. A case has at most one primary
// venue and lists each venue once.
func (svc *PracticeService) AddCaseJurisdiction(ctx context.Context, body *schemas.CaseJurisdictionCreate) (*models.CaseJurisdiction, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	cj := body.ToModel()
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.Case)(nil), "case_jurisdiction", "case_id", cj.CaseID); err != nil {
			return err
		}
		if err := requireRef(ctx, tx, (*models.Jurisdiction)(nil), "case_jurisdiction", "jurisdiction_id", cj.JurisdictionID); err != nil {
			return err
		}
		var existing []*models.CaseJurisdiction
		if err := tx.NewSelect().Model(&existing).Where("cj.case_id = ?", cj.CaseID).Scan(ctx); err != nil {
			return err
		}
		for _, e := range existing {
			if e.JurisdictionID == cj.JurisdictionID {
				return &common.UniquenessViolation{Entity: "case_jurisdiction", Field: "jurisdiction_id", Value: idString(cj.JurisdictionID)}
			}
			if cj.IsPrimary && e.IsPrimary {
				return &common.UniquenessViolation{Entity: "case_jurisdiction", Field: "is_primary", Value: idString(cj.CaseID)}
			}
		}
		return insert(ctx, tx, cj, "case_jurisdiction", "jurisdiction_id", idString(cj.JurisdictionID))
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "case_jurisdiction", cj.ID, cj)
	return cj, nil
}

// CaseJurisdictions lists the venues of a case, primary first.
func (svc *PracticeService) CaseJurisdictions(ctx context.Context, caseID int64) ([]*models.CaseJurisdiction, error) {
	var out []*models.CaseJurisdiction
	err := svc.DB.NewSelect().
		Model(&out).
		Relation("Jurisdiction").
		Where("cj.case_id = ?", caseID).
		OrderExpr("cj.is_primary DESC, cj.id ASC").
		Scan(ctx)
	return out, err
}
