package service

import (
	"context"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/uptrace/bun"
)

func (svc *PracticeService) CreateCaseType(ctx context.Context, body *schemas.CaseTypeCreate) (*models.CaseType, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	caseType := body.ToModel()
	if err := insert(ctx, svc.DB, caseType, "case_type", "name", caseType.Name); err != nil {
		return nil, err
	}
	svc.published(ctx, "case_type", caseType.ID, caseType)
	return caseType, nil
}

// CreateCase opens a pending case. Billing terms the payload leaves out come
// from the case type defaults.
func (svc *PracticeService) CreateCase(ctx context.Context, body *schemas.CaseCreate) (*models.Case, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	var c *models.Case
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.Client)(nil), "case", "client_id", body.ClientID); err != nil {
			return err
		}
		var caseType models.CaseType
		if err := load(ctx, tx, &caseType, body.CaseTypeID); err != nil {
			if err == common.ErrNotFound {
				return &common.ReferentialIntegrityError{Entity: "case", Field: "case_type_id", ID: body.CaseTypeID}
			}
			return err
		}
		if body.AssignedAttorneyID != nil {
			if err := requireRef(ctx, tx, (*models.User)(nil), "case", "assigned_attorney_id", *body.AssignedAttorneyID); err != nil {
				return err
			}
		}
		var err error
		if c, err = body.ToModel(&caseType); err != nil {
			return err
		}
		return insert(ctx, tx, c, "case", "case_number", c.CaseNumber)
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "case", c.ID, c)
	return c, nil
}

// FindCase loads a case with its client, case type and attorney.
func (svc *PracticeService) FindCase(ctx context.Context, caseID int64) (*models.Case, error) {
	var c models.Case
	err := svc.DB.NewSelect().
		Model(&c).
		Relation("Client").
		Relation("CaseType").
		Relation("AssignedAttorney").
		Where("c.id = ?", caseID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (svc *PracticeService) FindCaseByNumber(ctx context.Context, caseNumber string) (*models.Case, error) {
	var c models.Case
	if err := svc.DB.NewSelect().Model(&c).Where("case_number = ?", caseNumber).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// UpdateCaseStatus moves the case to status if it is still at version.
func (svc *PracticeService) UpdateCaseStatus(ctx context.Context, caseID int64, status common.CaseStatus, version int64) (*models.Case, error) {
	if !status.IsValid() {
		return nil, common.NewValidationError("status", "oneof", "%q is not a case status", status)
	}
	var c models.Case
	if err := load(ctx, svc.DB, &c, caseID); err != nil {
		return nil, err
	}
	if c.Version != version {
		return nil, &common.ConcurrentUpdateError{Entity: "case", ID: caseID, Version: version}
	}
	if err := c.Transition(status); err != nil {
		return nil, err
	}
	if err := updateVersioned(ctx, svc.DB, &c, "case", c.ID, &c.Version, "status", "opened_date", "closed_date", "updated_at"); err != nil {
		return nil, err
	}
	svc.Logger.Info().Int64("case_id", c.ID).Str("status", string(c.Status)).Msg("case status changed")
	return &c, nil
}

// AssignAttorney puts the case in the hands of an active attorney or partner.
func (svc *PracticeService) AssignAttorney(ctx context.Context, caseID, userID, version int64) (*models.Case, error) {
	user, err := svc.FindUser(ctx, userID)
	if err != nil {
		if err == common.ErrNotFound {
			return nil, &common.ReferentialIntegrityError{Entity: "case", Field: "assigned_attorney_id", ID: userID}
		}
		return nil, err
	}
	if !user.IsActive || user.Role.ResourceType() != common.ResourceTypeAttorney {
		return nil, common.NewValidationError("assigned_attorney_id", "role", "user %d cannot be assigned as attorney", userID)
	}
	var c models.Case
	if err := load(ctx, svc.DB, &c, caseID); err != nil {
		return nil, err
	}
	if c.Version != version {
		return nil, &common.ConcurrentUpdateError{Entity: "case", ID: caseID, Version: version}
	}
	if err := c.Assign(user.ID); err != nil {
		return nil, err
	}
	if err := updateVersioned(ctx, svc.DB, &c, "case", c.ID, &c.Version, "assigned_attorney_id", "updated_at"); err != nil {
		return nil, err
	}
	return &c, nil
}

func (svc *PracticeService) AddOpposingParty(ctx context.Context, body *schemas.OpposingPartyCreate) (*models.OpposingParty, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	party, err := body.ToModel()
	if err != nil {
		return nil, err
	}
	err = svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.Case)(nil), "opposing_party", "case_id", party.CaseID); err != nil {
			return err
		}
		return insert(ctx, tx, party, "opposing_party", "id", "")
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "opposing_party", party.ID, party)
	return party, nil
}

func (svc *PracticeService) AddDocument(ctx context.Context, body *schemas.DocumentCreate) (*models.Document, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	doc := body.ToModel()
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.Case)(nil), "document", "case_id", doc.CaseID); err != nil {
			return err
		}
		if err := requireRef(ctx, tx, (*models.User)(nil), "document", "uploaded_by_id", doc.UploadedByID); err != nil {
			return err
		}
		return insert(ctx, tx, doc, "document", "id", "")
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "document", doc.ID, doc)
	return doc, nil
}

func (svc *PracticeService) CaseDocuments(ctx context.Context, caseID int64) ([]*models.Document, error) {
	var docs []*models.Document
	err := svc.DB.NewSelect().Model(&docs).Where("d.case_id = ?", caseID).Order("d.uploaded_at", "d.id").Scan(ctx)
	return docs, err
}
