package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	var errs common.ValidationErrors
	require.True(t, errors.As(err, &errs), "expected ValidationErrors, got %v", err)
	return errs.Fields()
}

func TestUserCreateAcceptsRequiredOnly(t *testing.T) {
	u, err := Decode[UserCreate]([]byte(`{"email":"Ann@Firm.test","first_name":"Ann","last_name":"Lee","role":"attorney"}`))
	require.NoError(t, err)
	assert.Equal(t, common.UserRoleAttorney, u.Role)
	assert.Nil(t, u.Phone)
	assert.Nil(t, u.HourlyRate)

	m := u.ToModel()
	assert.Equal(t, "ann@firm.test", m.Email)
	assert.True(t, m.IsActive)
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	_, err := Decode[UserCreate]([]byte(`{"email":"a@b.test","first_name":"A","last_name":"B","role":"superadmin"}`))
	assert.Equal(t, []string{"role"}, validationFields(t, err))
}

func TestUserCreateMissingFields(t *testing.T) {
	_, err := Decode[UserCreate]([]byte(`{"email":"a@b.test"}`))
	assert.ElementsMatch(t, []string{"first_name", "last_name", "role"}, validationFields(t, err))
}

func TestUserCreateRejectsPrecisionLoss(t *testing.T) {
	_, err := Decode[UserCreate]([]byte(`{"email":"a@b.test","first_name":"A","last_name":"B","role":"paralegal","hourly_rate":"95.005"}`))
	var errs common.ValidationErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "hourly_rate", errs[0].Field)
	assert.Equal(t, "precision", errs[0].Rule)
}

func TestUserCreateRejectsLongPhone(t *testing.T) {
	_, err := Decode[UserCreate]([]byte(`{"email":"a@b.test","first_name":"A","last_name":"B","role":"paralegal","phone":"012345678901234567890"}`))
	assert.Equal(t, []string{"phone"}, validationFields(t, err))
}

func TestClientCreateDetailsUnion(t *testing.T) {
	c, err := Decode[ClientCreate]([]byte(`{"client_type":"organization","organization_name":"Acme LLC"}`))
	require.NoError(t, err)
	model, err := c.ToModel()
	require.NoError(t, err)
	assert.Equal(t, "Acme LLC", model.DisplayName())
	assert.Nil(t, model.FirstName)

	_, err = Decode[ClientCreate]([]byte(`{"client_type":"individual","first_name":"Ann"}`))
	assert.Equal(t, []string{"last_name"}, validationFields(t, err))

	_, err = Decode[ClientCreate]([]byte(`{"client_type":"organization","organization_name":"Acme","first_name":"Ann"}`))
	assert.Equal(t, []string{"first_name"}, validationFields(t, err))
}

func TestCaseCreateBillingTerms(t *testing.T) {
	_, err := Decode[CaseCreate]([]byte(`{"case_number":"C-1","title":"Estate","client_id":1,"case_type_id":1,"billing_model":"hourly","flat_fee":"500.00"}`))
	assert.Equal(t, []string{"flat_fee"}, validationFields(t, err))

	_, err = Decode[CaseCreate]([]byte(`{"case_number":"C-1","title":"Injury","client_id":1,"case_type_id":1,"billing_model":"contingency","contingency_percentage":"133.00"}`))
	assert.Contains(t, validationFields(t, err), "contingency_percentage")

	c, err := Decode[CaseCreate]([]byte(`{"case_number":"C-1","title":"Injury","client_id":1,"case_type_id":1,"billing_model":"contingency","contingency_percentage":"33.33"}`))
	require.NoError(t, err)
	assert.Equal(t, "33.33", c.ContingencyPercentage.String())
}

func TestActivityCreateDefaults(t *testing.T) {
	a, err := Decode[ActivityCreate]([]byte(`{"case_id":3,"title":"Hearing prep","activity_type":"Research"}`))
	require.NoError(t, err)
	assert.False(t, a.IsCourtDate)
	assert.False(t, a.IsCriticalDeadline)
	assert.Nil(t, a.DueDate)

	m := a.ToModel()
	assert.Equal(t, common.ActivityStatusPending, m.Status)
	assert.Equal(t, common.BillableStatusNonBillable, m.BillableStatus)
}

func TestTimeEntryCreateComputesTotal(t *testing.T) {
	te, err := Decode[TimeEntryCreate]([]byte(`{"activity_id":1,"user_id":2,"hours":"2.5","rate_per_hour":"150.00","description":"Drafting","date":"2024-03-01T10:00:00Z"}`))
	require.NoError(t, err)
	m, err := te.ToModel()
	require.NoError(t, err)
	assert.Equal(t, "375.00", m.TotalAmount.String())
	assert.Equal(t, common.BillableStatusBillable, m.BillableStatus)
}

func TestTimeEntryCreateRejectsBadHours(t *testing.T) {
	_, err := Decode[TimeEntryCreate]([]byte(`{"activity_id":1,"user_id":2,"hours":"0.25","rate_per_hour":"150.00","description":"x","date":"2024-03-01T10:00:00Z"}`))
	assert.Equal(t, []string{"hours"}, validationFields(t, err))

	_, err = Decode[TimeEntryCreate]([]byte(`{"activity_id":1,"user_id":2,"hours":"0","rate_per_hour":"150.00","description":"x","date":"2024-03-01T10:00:00Z"}`))
	assert.Equal(t, []string{"hours"}, validationFields(t, err))

	_, err = Decode[TimeEntryCreate]([]byte(`{"activity_id":1,"user_id":2,"rate_per_hour":"150.00","description":"x"}`))
	assert.ElementsMatch(t, []string{"hours", "date"}, validationFields(t, err))
}

func TestExpenseCreateDefaultsMarkup(t *testing.T) {
	e, err := Decode[ExpenseCreate]([]byte(`{"case_id":1,"user_id":2,"description":"Filing","expense_type":"reimbursable","amount":"100.00","expense_date":"2024-03-01T00:00:00Z","category":"Filing Fees"}`))
	require.NoError(t, err)
	require.NotNil(t, e.MarkupPercentage)
	assert.True(t, e.MarkupPercentage.IsZero())

	m, err := e.ToModel()
	require.NoError(t, err)
	assert.Equal(t, "100.00", m.TotalAmount.String())
}

func TestExpenseCreateAppliesMarkup(t *testing.T) {
	e, err := Decode[ExpenseCreate]([]byte(`{"case_id":1,"user_id":2,"description":"Travel","expense_type":"reimbursable","amount":"100.00","markup_percentage":"10","expense_date":"2024-03-01T00:00:00Z","category":"Travel"}`))
	require.NoError(t, err)
	m, err := e.ToModel()
	require.NoError(t, err)
	assert.Equal(t, "110.00", m.TotalAmount.String())
}

func TestInvoiceCreateDueDate(t *testing.T) {
	_, err := Decode[InvoiceCreate]([]byte(`{"case_id":1,"invoice_date":"2024-03-01T00:00:00Z"}`))
	assert.Equal(t, []string{"due_date"}, validationFields(t, err))

	_, err = Decode[InvoiceCreate]([]byte(`{"case_id":1,"invoice_date":"2024-03-10T00:00:00Z","due_date":"2024-03-01T00:00:00Z"}`))
	assert.Equal(t, []string{"due_date"}, validationFields(t, err))

	i, err := Decode[InvoiceCreate]([]byte(`{"case_id":1,"invoice_date":"2024-03-01T00:00:00Z","due_date":"2024-03-31T00:00:00Z"}`))
	require.NoError(t, err)
	m, err := i.ToModel("INV-C-1-1")
	require.NoError(t, err)
	assert.Equal(t, common.InvoiceStatusDraft, m.Status)
	assert.Equal(t, "0.00", m.TotalAmount.String())
}

func TestBeneficiaryCreateRejectsSelfLink(t *testing.T) {
	_, err := Decode[BeneficiaryCreate]([]byte(`{"beneficiary_id":4,"dependent_id":4,"relationship_type":"spouse"}`))
	assert.Equal(t, []string{"dependent_id"}, validationFields(t, err))
}

func TestJurisdictionCreateType(t *testing.T) {
	_, err := Decode[JurisdictionCreate]([]byte(`{"name":"Ninth Circuit","jurisdiction_type":"galactic"}`))
	assert.Equal(t, []string{"jurisdiction_type"}, validationFields(t, err))
}

func TestJournalTransactionCreate(t *testing.T) {
	payload := `{"entry_date":"2024-03-01T00:00:00Z","description":"Invoice","created_by_id":1,
		"lines":[{"account_id":1,"debit_amount":"550.00"},{"account_id":2,"credit_amount":"550.00"}]}`
	j, err := Decode[JournalTransactionCreate]([]byte(payload))
	require.NoError(t, err)
	lines := j.LedgerLines()
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Credit.IsZero())

	unbalanced := `{"entry_date":"2024-03-01T00:00:00Z","description":"Invoice","created_by_id":1,
		"lines":[{"account_id":1,"debit_amount":"550.00"},{"account_id":2,"credit_amount":"500.00"}]}`
	_, err = Decode[JournalTransactionCreate]([]byte(unbalanced))
	var unbalancedErr *common.UnbalancedTransactionError
	assert.True(t, errors.As(err, &unbalancedErr))

	single := `{"entry_date":"2024-03-01T00:00:00Z","description":"Invoice","created_by_id":1,
		"lines":[{"account_id":1,"debit_amount":"550.00"}]}`
	_, err = Decode[JournalTransactionCreate]([]byte(single))
	assert.Equal(t, []string{"lines"}, validationFields(t, err))
}

func TestDecodeRejectsWrongTypes(t *testing.T) {
	_, err := Decode[CaseCreate]([]byte(`{"case_number":"C-1","title":"x","client_id":"one","case_type_id":1,"billing_model":"hourly"}`))
	assert.Equal(t, []string{"client_id"}, validationFields(t, err))

	_, err = Decode[CaseCreate]([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestDecimalsKeepScaleThroughJSON(t *testing.T) {
	e, err := Decode[ExpenseCreate]([]byte(`{"case_id":1,"user_id":2,"description":"Copies","expense_type":"non_reimbursable","amount":"100.00","markup_percentage":"0","expense_date":"2024-03-01T00:00:00Z","category":"Copies"}`))
	require.NoError(t, err)
	m, err := e.ToModel()
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	var back map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "100.00", back["amount"])
	assert.Equal(t, "0.00", back["markup_percentage"])
	assert.Equal(t, "100.00", back["total_amount"])

	var amount money.Amount
	require.NoError(t, json.Unmarshal([]byte(`"100.00"`), &amount))
	assert.Equal(t, "100.00", amount.String())
}
