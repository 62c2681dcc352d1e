package service

import (
	"context"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/uptrace/bun"
)

func (svc *PracticeService) CreateActivity(ctx context.Context, body *schemas.ActivityCreate) (*models.Activity, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	activity := body.ToModel()
	err := svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.Case)(nil), "activity", "case_id", activity.CaseID); err != nil {
			return err
		}
		if activity.AssignedUserID != nil {
			if err := requireRef(ctx, tx, (*models.User)(nil), "activity", "assigned_user_id", *activity.AssignedUserID); err != nil {
				return err
			}
		}
		return insert(ctx, tx, activity, "activity", "id", "")
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "activity", activity.ID, activity)
	return activity, nil
}

func (svc *PracticeService) FindActivity(ctx context.Context, activityID int64) (*models.Activity, error) {
	var activity models.Activity
	if err := load(ctx, svc.DB, &activity, activityID); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (svc *PracticeService) CompleteActivity(ctx context.Context, activityID int64) (*models.Activity, error) {
	activity, err := svc.FindActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if err := activity.Complete(); err != nil {
		return nil, err
	}
	_, err = svc.DB.NewUpdate().
		Model(activity).
		Column("status", "completed_date", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// SetActivityBillableStatus moves the activity's billable status forward.
func (svc *PracticeService) SetActivityBillableStatus(ctx context.Context, activityID int64, status common.ActivityBillableStatus) (*models.Activity, error) {
	if !status.IsValid() {
		return nil, common.NewValidationError("billable_status", "oneof", "%q is not a billable status", status)
	}
	activity, err := svc.FindActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if err := activity.SetBillableStatus(status); err != nil {
		return nil, err
	}
	_, err = svc.DB.NewUpdate().
		Model(activity).
		Column("billable_status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// RecordTime logs hours against an activity. The entry starts billable with
// total_amount = hours × rate_per_hour.
func (svc *PracticeService) RecordTime(ctx context.Context, body *schemas.TimeEntryCreate) (*models.TimeEntry, error) {
	if err := schemas.Validate(body); err != nil {
		return nil, err
	}
	entry, err := body.ToModel()
	if err != nil {
		return nil, err
	}
	err = svc.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := requireRef(ctx, tx, (*models.Activity)(nil), "time_entry", "activity_id", entry.ActivityID); err != nil {
			return err
		}
		if err := requireRef(ctx, tx, (*models.User)(nil), "time_entry", "user_id", entry.UserID); err != nil {
			return err
		}
		return insert(ctx, tx, entry, "time_entry", "id", "")
	})
	if err != nil {
		return nil, err
	}
	svc.published(ctx, "time_entry", entry.ID, entry)
	return entry, nil
}

// UnbilledTime lists the billable time entries of a case that no invoice
// carries yet.
func (svc *PracticeService) UnbilledTime(ctx context.Context, caseID int64) ([]*models.TimeEntry, error) {
	var entries []*models.TimeEntry
	err := svc.DB.NewSelect().
		Model(&entries).
		Join("JOIN activities AS a ON a.id = te.activity_id").
		Where("a.case_id = ?", caseID).
		Where("te.billable_status = ?", common.BillableStatusBillable).
		Order("te.date", "te.id").
		Scan(ctx)
	return entries, err
}
