package models

import (
	"context"
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/uptrace/bun"
)

// User : firm staff or client-portal account
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int64           `json:"id" bun:",pk,autoincrement"`
	Email      string          `json:"email" bun:",type:varchar(255),notnull,unique"`
	FirstName  string          `json:"first_name" bun:",type:varchar(100),notnull"`
	LastName   string          `json:"last_name" bun:",type:varchar(100),notnull"`
	Role       common.UserRole `json:"role" bun:",type:varchar(50),notnull"`
	IsActive   bool            `json:"is_active" bun:",notnull"`
	Phone      *string         `json:"phone" bun:",type:varchar(20)"`
	HourlyRate *money.Amount   `json:"hourly_rate" bun:",type:numeric(12,2)"`
	CreatedAt  time.Time       `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time       `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`

	AssignedCases []*Case      `json:"-" bun:"rel:has-many,join:id=assigned_attorney_id"`
	Activities    []*Activity  `json:"-" bun:"rel:has-many,join:id=assigned_user_id"`
	Expenses      []*Expense   `json:"-" bun:"rel:has-many,join:id=user_id"`
	TimeEntries   []*TimeEntry `json:"-" bun:"rel:has-many,join:id=user_id"`
}

func NewUser(email, firstName, lastName string, role common.UserRole) *User {
	now := Now()
	return &User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		u.UpdatedAt = Now()
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*User)(nil)
