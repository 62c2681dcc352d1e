package models

import (
	"context"
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/uptrace/bun"
)

// Activity : task, meeting, deadline or court date tied to a case
type Activity struct {
	bun.BaseModel `bun:"table:activities,alias:a"`

	ID             int64                         `json:"id" bun:",pk,autoincrement"`
	CaseID         int64                         `json:"case_id" bun:",notnull"`
	AssignedUserID *int64                        `json:"assigned_user_id"`
	Title          string                        `json:"title" bun:",type:varchar(500),notnull"`
	Description    *string                       `json:"description" bun:",type:varchar(2000)"`
	ActivityType   string                        `json:"activity_type" bun:",type:varchar(100),notnull"`
	Status         common.ActivityStatus         `json:"status" bun:",type:varchar(20),notnull"`
	BillableStatus common.ActivityBillableStatus `json:"billable_status" bun:",type:varchar(20),notnull"`

	DueDate       bun.NullTime `json:"due_date"`
	CompletedDate bun.NullTime `json:"completed_date"`

	IsCourtDate        bool `json:"is_court_date" bun:",notnull"`
	IsCriticalDeadline bool `json:"is_critical_deadline" bun:",notnull"`

	CreatedAt time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`

	Case         *Case        `json:"case,omitempty" bun:"rel:belongs-to,join:case_id=id"`
	AssignedUser *User        `json:"assigned_user,omitempty" bun:"rel:belongs-to,join:assigned_user_id=id"`
	TimeEntries  []*TimeEntry `json:"-" bun:"rel:has-many,join:id=activity_id"`
}

func NewActivity(caseID int64, title, activityType string) *Activity {
	now := Now()
	return &Activity{
		CaseID:         caseID,
		Title:          title,
		ActivityType:   activityType,
		Status:         common.ActivityStatusPending,
		BillableStatus: common.BillableStatusNonBillable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SetDueDate stores the due date in UTC; nil clears it.
func (a *Activity) SetDueDate(due *time.Time) {
	if due == nil {
		a.DueDate = bun.NullTime{}
		return
	}
	a.DueDate = bun.NullTime{Time: utc(*due)}
}

// SetBillableStatus moves the billable status forward. Billed work cannot
// become billable again.
func (a *Activity) SetBillableStatus(status common.ActivityBillableStatus) error {
	if !a.BillableStatus.CanTransitionTo(status) {
		return &common.StateError{Entity: "activity", ID: a.ID, State: string(a.BillableStatus), Action: "mark " + string(status)}
	}
	a.BillableStatus = status
	return nil
}

// Complete marks the activity done and stamps completed_date.
func (a *Activity) Complete() error {
	if a.Status == common.ActivityStatusCancelled {
		return &common.StateError{Entity: "activity", ID: a.ID, State: string(a.Status), Action: "complete"}
	}
	if a.Status == common.ActivityStatusCompleted {
		return nil
	}
	a.Status = common.ActivityStatusCompleted
	a.CompletedDate = bun.NullTime{Time: Now()}
	return nil
}

func (a *Activity) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		a.UpdatedAt = Now()
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Activity)(nil)

// TimeEntry : time recorded against an activity, in 0.1 hour increments
type TimeEntry struct {
	bun.BaseModel `bun:"table:time_entries,alias:te"`

	ID             int64                         `json:"id" bun:",pk,autoincrement"`
	ActivityID     int64                         `json:"activity_id" bun:",notnull"`
	UserID         int64                         `json:"user_id" bun:",notnull"`
	Hours          money.Hours                   `json:"hours" bun:",type:numeric(6,1),notnull"`
	RatePerHour    money.Amount                  `json:"rate_per_hour" bun:",type:numeric(12,2),notnull"`
	TotalAmount    money.Amount                  `json:"total_amount" bun:",type:numeric(12,2),notnull"`
	Description    string                        `json:"description" bun:",type:varchar(1000),notnull"`
	Date           time.Time                     `json:"date" bun:",notnull"`
	BillableStatus common.ActivityBillableStatus `json:"billable_status" bun:",type:varchar(20),notnull"`
	CreatedAt      time.Time                     `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`

	Activity         *Activity          `json:"activity,omitempty" bun:"rel:belongs-to,join:activity_id=id"`
	User             *User              `json:"user,omitempty" bun:"rel:belongs-to,join:user_id=id"`
	InvoiceLineItems []*InvoiceLineItem `json:"-" bun:"rel:has-many,join:id=time_entry_id"`
}

// NewTimeEntry records hours at rate and computes total_amount, e.g.
// 2.5 hours at 150.00 is 375.00.
func NewTimeEntry(activityID, userID int64, hours money.Hours, rate money.Amount, description string, date time.Time) (*TimeEntry, error) {
	var errs common.ValidationErrors
	if !hours.IsPositive() {
		errs = append(errs, common.NewValidationError("hours", "gt", "hours must be greater than 0"))
	}
	if rate.IsNegative() {
		errs = append(errs, common.NewValidationError("rate_per_hour", "gte", "rate_per_hour must not be negative"))
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &TimeEntry{
		ActivityID:     activityID,
		UserID:         userID,
		Hours:          hours,
		RatePerHour:    rate,
		TotalAmount:    rate.Times(hours),
		Description:    description,
		Date:           utc(date),
		BillableStatus: common.BillableStatusBillable,
		CreatedAt:      Now(),
	}, nil
}

func (t *TimeEntry) IsBillable() bool {
	return t.BillableStatus == common.BillableStatusBillable
}
