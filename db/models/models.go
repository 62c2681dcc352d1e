// Package models contains the persistent entities of the practice database.
//
// Derived columns (time entry, expense, invoice and line item totals) are
// computed by the New* constructors and Recalculate methods so callers never
// maintain them by hand. Timestamps are stamped in UTC when a value is
// constructed and restamped by BeforeAppendModel hooks on update.
package models

import (
	"time"
)

// Now returns the current time in UTC. Tests may replace it.
var Now = func() time.Time {
	return time.Now().UTC()
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
