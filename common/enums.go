package common

import (
	"fmt"
	"strings"
)

type UserRole string

const (
	UserRoleFirmAdmin          UserRole = "firm_admin"
	UserRoleManagingPartner    UserRole = "managing_partner"
	UserRoleAttorney           UserRole = "attorney"
	UserRoleParalegal          UserRole = "paralegal"
	UserRoleAccountingStaff    UserRole = "accounting_staff"
	UserRoleClient             UserRole = "client"
	UserRoleHRRepresentative   UserRole = "hr_representative"
	UserRoleCompanyManager     UserRole = "company_manager"
	UserRoleIndividualEmployee UserRole = "individual_employee"
)

var UserRoles = []UserRole{
	UserRoleFirmAdmin,
	UserRoleManagingPartner,
	UserRoleAttorney,
	UserRoleParalegal,
	UserRoleAccountingStaff,
	UserRoleClient,
	UserRoleHRRepresentative,
	UserRoleCompanyManager,
	UserRoleIndividualEmployee,
}

func (r UserRole) IsValid() bool                { return contains(UserRoles, r) }
func (r UserRole) MarshalText() ([]byte, error) { return marshalEnum("role", r, UserRoles) }
func (r *UserRole) UnmarshalText(b []byte) error {
	return unmarshalEnum("role", b, r, UserRoles)
}

// ResourceType is the billing category a firm role invoices under.
func (r UserRole) ResourceType() ResourceType {
	switch r {
	case UserRoleAttorney, UserRoleManagingPartner:
		return ResourceTypeAttorney
	case UserRoleParalegal:
		return ResourceTypeParalegal
	default:
		return ResourceTypeAdmin
	}
}

type ClientType string

const (
	ClientTypeIndividual   ClientType = "individual"
	ClientTypeOrganization ClientType = "organization"
)

var ClientTypes = []ClientType{ClientTypeIndividual, ClientTypeOrganization}

func (t ClientType) IsValid() bool                { return contains(ClientTypes, t) }
func (t ClientType) MarshalText() ([]byte, error) { return marshalEnum("client_type", t, ClientTypes) }
func (t *ClientType) UnmarshalText(b []byte) error {
	return unmarshalEnum("client_type", b, t, ClientTypes)
}

type CaseStatus string

const (
	CaseStatusPending   CaseStatus = "pending"
	CaseStatusActive    CaseStatus = "active"
	CaseStatusCompleted CaseStatus = "completed"
	CaseStatusStopped   CaseStatus = "stopped"
)

var CaseStatuses = []CaseStatus{CaseStatusPending, CaseStatusActive, CaseStatusCompleted, CaseStatusStopped}

func (s CaseStatus) IsValid() bool                { return contains(CaseStatuses, s) }
func (s CaseStatus) MarshalText() ([]byte, error) { return marshalEnum("status", s, CaseStatuses) }
func (s *CaseStatus) UnmarshalText(b []byte) error {
	return unmarshalEnum("status", b, s, CaseStatuses)
}

// IsClosed reports whether the case no longer accepts work.
func (s CaseStatus) IsClosed() bool {
	return s == CaseStatusCompleted || s == CaseStatusStopped
}

type ActivityBillableStatus string

const (
	BillableStatusNonBillable ActivityBillableStatus = "non_billable"
	BillableStatusBillable    ActivityBillableStatus = "billable"
	BillableStatusBilled      ActivityBillableStatus = "billed"
)

var ActivityBillableStatuses = []ActivityBillableStatus{
	BillableStatusNonBillable,
	BillableStatusBillable,
	BillableStatusBilled,
}

func (s ActivityBillableStatus) IsValid() bool { return contains(ActivityBillableStatuses, s) }
func (s ActivityBillableStatus) MarshalText() ([]byte, error) {
	return marshalEnum("billable_status", s, ActivityBillableStatuses)
}
func (s *ActivityBillableStatus) UnmarshalText(b []byte) error {
	return unmarshalEnum("billable_status", b, s, ActivityBillableStatuses)
}

// CanTransitionTo only allows moving forward: non_billable -> billable -> billed.
func (s ActivityBillableStatus) CanTransitionTo(next ActivityBillableStatus) bool {
	return indexOf(ActivityBillableStatuses, next) >= indexOf(ActivityBillableStatuses, s)
}

type ActivityStatus string

const (
	ActivityStatusPending    ActivityStatus = "pending"
	ActivityStatusInProgress ActivityStatus = "in_progress"
	ActivityStatusCompleted  ActivityStatus = "completed"
	ActivityStatusCancelled  ActivityStatus = "cancelled"
)

var ActivityStatuses = []ActivityStatus{
	ActivityStatusPending,
	ActivityStatusInProgress,
	ActivityStatusCompleted,
	ActivityStatusCancelled,
}

func (s ActivityStatus) IsValid() bool { return contains(ActivityStatuses, s) }
func (s ActivityStatus) MarshalText() ([]byte, error) {
	return marshalEnum("status", s, ActivityStatuses)
}
func (s *ActivityStatus) UnmarshalText(b []byte) error {
	return unmarshalEnum("status", b, s, ActivityStatuses)
}

type BillingModel string

const (
	BillingModelHourly      BillingModel = "hourly"
	BillingModelFlatFee     BillingModel = "flat_fee"
	BillingModelContingency BillingModel = "contingency"
	BillingModelRetainer    BillingModel = "retainer"
)

var BillingModels = []BillingModel{
	BillingModelHourly,
	BillingModelFlatFee,
	BillingModelContingency,
	BillingModelRetainer,
}

func (m BillingModel) IsValid() bool { return contains(BillingModels, m) }
func (m BillingModel) MarshalText() ([]byte, error) {
	return marshalEnum("billing_model", m, BillingModels)
}
func (m *BillingModel) UnmarshalText(b []byte) error {
	return unmarshalEnum("billing_model", b, m, BillingModels)
}

type ExpenseType string

const (
	ExpenseTypeReimbursable    ExpenseType = "reimbursable"
	ExpenseTypeNonReimbursable ExpenseType = "non_reimbursable"
)

var ExpenseTypes = []ExpenseType{ExpenseTypeReimbursable, ExpenseTypeNonReimbursable}

func (t ExpenseType) IsValid() bool { return contains(ExpenseTypes, t) }
func (t ExpenseType) MarshalText() ([]byte, error) {
	return marshalEnum("expense_type", t, ExpenseTypes)
}
func (t *ExpenseType) UnmarshalText(b []byte) error {
	return unmarshalEnum("expense_type", b, t, ExpenseTypes)
}

type ResourceType string

const (
	ResourceTypeAttorney  ResourceType = "attorney"
	ResourceTypeParalegal ResourceType = "paralegal"
	ResourceTypeAdmin     ResourceType = "admin"
)

var ResourceTypes = []ResourceType{ResourceTypeAttorney, ResourceTypeParalegal, ResourceTypeAdmin}

func (t ResourceType) IsValid() bool { return contains(ResourceTypes, t) }
func (t ResourceType) MarshalText() ([]byte, error) {
	return marshalEnum("resource_type", t, ResourceTypes)
}
func (t *ResourceType) UnmarshalText(b []byte) error {
	return unmarshalEnum("resource_type", b, t, ResourceTypes)
}

type TransactionType string

const (
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeBilling    TransactionType = "billing"
)

var TransactionTypes = []TransactionType{
	TransactionTypePayment,
	TransactionTypeRefund,
	TransactionTypeAdjustment,
	TransactionTypeBilling,
}

func (t TransactionType) IsValid() bool { return contains(TransactionTypes, t) }
func (t TransactionType) MarshalText() ([]byte, error) {
	return marshalEnum("transaction_type", t, TransactionTypes)
}
func (t *TransactionType) UnmarshalText(b []byte) error {
	return unmarshalEnum("transaction_type", b, t, TransactionTypes)
}

type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

func (t AccountType) IsValid() bool { return contains(AccountTypes, t) }
func (t AccountType) MarshalText() ([]byte, error) {
	return marshalEnum("account_type", t, AccountTypes)
}
func (t *AccountType) UnmarshalText(b []byte) error {
	return unmarshalEnum("account_type", b, t, AccountTypes)
}

// DebitNormal reports whether debits increase the balance of this account type.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

func (s InvoiceStatus) IsValid() bool { return contains(InvoiceStatuses, s) }
func (s InvoiceStatus) MarshalText() ([]byte, error) {
	return marshalEnum("status", s, InvoiceStatuses)
}
func (s *InvoiceStatus) UnmarshalText(b []byte) error {
	return unmarshalEnum("status", b, s, InvoiceStatuses)
}

type LineType string

const (
	LineTypeTime    LineType = "time"
	LineTypeExpense LineType = "expense"
)

var LineTypes = []LineType{LineTypeTime, LineTypeExpense}

func (t LineType) IsValid() bool                { return contains(LineTypes, t) }
func (t LineType) MarshalText() ([]byte, error) { return marshalEnum("line_type", t, LineTypes) }
func (t *LineType) UnmarshalText(b []byte) error {
	return unmarshalEnum("line_type", b, t, LineTypes)
}

func contains[T ~string](set []T, v T) bool {
	return indexOf(set, v) >= 0
}

func indexOf[T ~string](set []T, v T) int {
	for i, s := range set {
		if s == v {
			return i
		}
	}
	return -1
}

func marshalEnum[T ~string](field string, v T, set []T) ([]byte, error) {
	if !contains(set, v) {
		return nil, enumError(field, string(v), set)
	}
	return []byte(v), nil
}

func unmarshalEnum[T ~string](field string, b []byte, dst *T, set []T) error {
	v := T(b)
	if !contains(set, v) {
		return enumError(field, string(b), set)
	}
	*dst = v
	return nil
}

func enumError[T ~string](field, value string, set []T) *ValidationError {
	tokens := make([]string, len(set))
	for i, s := range set {
		tokens[i] = string(s)
	}
	return &ValidationError{
		Field:   field,
		Rule:    "oneof",
		Message: fmt.Sprintf("%q is not one of [%s]", value, strings.Join(tokens, " ")),
	}
}
