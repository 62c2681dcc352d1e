package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/schemas"
)

func (svc *PracticeService) CreateUser(ctx context.Context, body *schemas.UserCreate) (*models.User, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	user := body.ToModel()
	if err := insert(ctx, svc.DB, user, "user", "email", user.Email); err != nil {
		return nil, err
	}
	svc.published(ctx, "user", user.ID, user)
	return user, nil
}

func (svc *PracticeService) FindUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := load(ctx, svc.DB, &user, userID); err != nil {
		return nil, err
	}
	return &user, nil
}

func (svc *PracticeService) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := svc.DB.NewSelect().Model(&user).Where("email = lower(?)", email).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeactivateUser keeps the user's history but blocks new assignments.
func (svc *PracticeService) DeactivateUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := svc.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsActive = false
	if _, err := svc.DB.NewUpdate().Model(user).Column("is_active", "updated_at").WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return user, nil
}
