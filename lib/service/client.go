package service

import (
	"context"

	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/uptrace/bun"
)

func (svc *PracticeService) CreateClient(ctx context.Context, body *schemas.ClientCreate) (*models.Client, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	client, err := body.ToModel()
	if err != nil {
		return nil, err
	}
	if err := insert(ctx, svc.DB, client, "client", "id", ""); err != nil {
		return nil, err
	}
	svc.published(ctx, "client", client.ID, client)
	return client, nil
}

func (svc *PracticeService) FindClient(ctx context.Context, clientID int64) (*models.Client, error) {
	var client models.Client
	if err := load(ctx, svc.DB, &client, clientID); err != nil {
		return nil, err
	}
	return &client, nil
}

// AddBeneficiary links two existing, distinct clients.
func (svc *PracticeService) AddBeneficiary(ctx context.Context, body *schemas.BeneficiaryCreate) (*models.BeneficiaryRelationship, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	rel, err := body.ToModel()
	if err != nil {
		return nil, err
	}
	err = svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.Client)(nil), "beneficiary_relationship", "beneficiary_id", rel.BeneficiaryID); err != nil {
			return err
		}
		if err := requireRef(ctx, tx, (*models.Client)(nil), "beneficiary_relationship", "dependent_id", rel.DependentID); err != nil {
			return err
		}
		return insert(ctx, tx, rel, "beneficiary_relationship", "dependent_id", "")
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "beneficiary_relationship", rel.ID, rel)
	return rel, nil
}

// Dependents lists the relationships where clientID is the beneficiary, with
// the dependent client loaded.
func (svc *PracticeService) Dependents(ctx context.Context, clientID int64) ([]*models.BeneficiaryRelationship, error) {
	var rels []*models.BeneficiaryRelationship
	err := svc.DB.NewSelect().
		Model(&rels).
		Relation("Dependent").
		Where("br.beneficiary_id = ?", clientID).
		Order("br.id").
		Scan(ctx)
	return rels, err
}
