package common

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("record not found")

// ValidationError is a single rejected field of a payload or entity.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, rule, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fields lists the offending field names in order.
func (errs ValidationErrors) Fields() []string {
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	return fields
}

// UniquenessViolation is returned when a write would duplicate a unique key.
type UniquenessViolation struct {
	Entity string
	Field  string
	Value  string
}

func (e *UniquenessViolation) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// ReferentialIntegrityError is returned when a foreign key points at a missing row.
type ReferentialIntegrityError struct {
	Entity string
	Field  string
	ID     int64
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s references missing %s %d", e.Entity, strings.TrimSuffix(e.Field, "_id"), e.ID)
}

// PrecisionLossError is returned when a value has more decimal places than its column allows.
type PrecisionLossError struct {
	Field string
	Value string
	Scale int32
}

func (e *PrecisionLossError) Error() string {
	field := e.Field
	if field == "" {
		field = "value"
	}
	return fmt.Sprintf("%s %s cannot be stored with %d decimal places without rounding", field, e.Value, e.Scale)
}

// CycleError is returned when re-parenting an account would make it its own ancestor.
type CycleError struct {
	AccountID int64
	ParentID  int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("account %d cannot be placed under %d: parent chain would loop", e.AccountID, e.ParentID)
}

type UnbalancedTransactionError struct {
	Debits  string
	Credits string
}

func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("journal transaction is unbalanced: debits %s != credits %s", e.Debits, e.Credits)
}

// ConcurrentUpdateError is returned when a row changed since it was read.
type ConcurrentUpdateError struct {
	Entity  string
	ID      int64
	Version int64
}

func (e *ConcurrentUpdateError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently (expected version %d)", e.Entity, e.ID, e.Version)
}

type InsufficientTrustFundsError struct {
	TrustAccountID int64
	CaseID         int64
	Available      string
	Requested      string
}

func (e *InsufficientTrustFundsError) Error() string {
	if e.CaseID != 0 {
		return fmt.Sprintf("case %d holds %s in trust account %d, cannot withdraw %s", e.CaseID, e.Available, e.TrustAccountID, e.Requested)
	}
	return fmt.Sprintf("trust account %d holds %s, cannot withdraw %s", e.TrustAccountID, e.Available, e.Requested)
}

// StateError is returned when an operation does not apply to a record's current state.
type StateError struct {
	Entity string
	ID     int64
	State  string
	Action string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in state %s", e.Action, e.Entity, e.ID, e.State)
}
