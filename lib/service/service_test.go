package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/db"
	"github.com/counselhub/counselhub.go/db/migrations"
	"github.com/counselhub/counselhub.go/db/models"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/counselhub/counselhub.go/lib/schemas"
	"github.com/counselhub/counselhub.go/lib/service"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"github.com/uptrace/bun/migrate"
)

type publishedRecord struct {
	entity string
	event  string
	id     int64
}

type recordingPublisher struct {
	mu      sync.Mutex
	records []publishedRecord
}

func (p *recordingPublisher) PublishRecord(ctx context.Context, entity, event string, id int64, record interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, publishedRecord{entity: entity, event: event, id: id})
	return nil
}

type failingPublisher struct{}

func (failingPublisher) PublishRecord(ctx context.Context, entity, event string, id int64, record interface{}) error {
	return errors.New("channel/connection is not open")
}

type PracticeServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *service.PracticeService
	publisher *recordingPublisher

	attorney *models.User
	client   *models.Client
	hourly   *models.CaseType
}

func TestPracticeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PracticeServiceTestSuite))
}

func (suite *PracticeServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	c := &service.Config{
		DatabaseUri:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		InvoiceNumberPrefix: "INV",
	}
	dbConn, err := db.Open(c)
	suite.Require().NoError(err)

	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	suite.Require().NoError(migrator.Init(suite.ctx))
	_, err = migrator.Migrate(suite.ctx)
	suite.Require().NoError(err)

	suite.publisher = &recordingPublisher{}
	suite.svc = service.NewPracticeService(c, dbConn, zerolog.Nop(), suite.publisher)

	suite.attorney = suite.createUser("ann@firm.test", common.UserRoleAttorney)
	suite.client, err = suite.svc.CreateClient(suite.ctx, &schemas.ClientCreate{
		ClientType: common.ClientTypeIndividual,
		FirstName:  str("Jane"),
		LastName:   str("Doe"),
	})
	suite.Require().NoError(err)
	rate := money.MustAmount("200.00")
	suite.hourly, err = suite.svc.CreateCaseType(suite.ctx, &schemas.CaseTypeCreate{
		Name:                "Litigation",
		DefaultBillingModel: common.BillingModelHourly,
		DefaultHourlyRate:   &rate,
	})
	suite.Require().NoError(err)
}

func (suite *PracticeServiceTestSuite) TearDownTest() {
	suite.svc.DB.Close()
}

func (suite *PracticeServiceTestSuite) createUser(email string, role common.UserRole) *models.User {
	user, err := suite.svc.CreateUser(suite.ctx, &schemas.UserCreate{
		Email:     email,
		FirstName: "Ann",
		LastName:  "Lee",
		Role:      role,
	})
	suite.Require().NoError(err)
	return user
}

func (suite *PracticeServiceTestSuite) createCase(number string) *models.Case {
	c, err := suite.svc.CreateCase(suite.ctx, &schemas.CaseCreate{
		CaseNumber:   number,
		Title:        "Doe v. Acme",
		ClientID:     suite.client.ID,
		CaseTypeID:   suite.hourly.ID,
		BillingModel: common.BillingModelHourly,
	})
	suite.Require().NoError(err)
	return c
}

func (suite *PracticeServiceTestSuite) recordTime(caseID int64, hours, rate string) *models.TimeEntry {
	activity, err := suite.svc.CreateActivity(suite.ctx, &schemas.ActivityCreate{
		CaseID:       caseID,
		Title:        "Draft complaint",
		ActivityType: "drafting",
	})
	suite.Require().NoError(err)
	h, r := money.MustHours(hours), money.MustAmount(rate)
	entry, err := suite.svc.RecordTime(suite.ctx, &schemas.TimeEntryCreate{
		ActivityID:  activity.ID,
		UserID:      suite.attorney.ID,
		Hours:       &h,
		RatePerHour: &r,
		Description: "Drafting",
		Date:        time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	})
	suite.Require().NoError(err)
	return entry
}

func (suite *PracticeServiceTestSuite) recordExpense(caseID int64, amount string, markup *money.Percent) *models.Expense {
	a := money.MustAmount(amount)
	expense, err := suite.svc.RecordExpense(suite.ctx, &schemas.ExpenseCreate{
		CaseID:           caseID,
		UserID:           suite.attorney.ID,
		Description:      "Filing fee",
		ExpenseType:      common.ExpenseTypeReimbursable,
		Amount:           &a,
		MarkupPercentage: markup,
		ExpenseDate:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Category:         "court",
	})
	suite.Require().NoError(err)
	return expense
}

func (suite *PracticeServiceTestSuite) TestCreateUserDuplicateEmail() {
	_, err := suite.svc.CreateUser(suite.ctx, &schemas.UserCreate{
		Email:     "ANN@firm.test",
		FirstName: "Other",
		LastName:  "Ann",
		Role:      common.UserRoleParalegal,
	})
	var dup *common.UniquenessViolation
	suite.Require().True(errors.As(err, &dup), "expected UniquenessViolation, got %v", err)
	suite.Equal("email", dup.Field)

	found, err := suite.svc.FindUserByEmail(suite.ctx, "Ann@Firm.test")
	suite.Require().NoError(err)
	suite.Equal(suite.attorney.ID, found.ID)
	suite.Equal(common.UserRoleAttorney, found.Role)
}

func (suite *PracticeServiceTestSuite) TestCreateUserRejectsUnknownRole() {
	_, err := suite.svc.CreateUser(suite.ctx, &schemas.UserCreate{
		Email:     "x@firm.test",
		FirstName: "X",
		LastName:  "Y",
		Role:      common.UserRole("superadmin"),
	})
	var errs common.ValidationErrors
	suite.Require().True(errors.As(err, &errs))
	suite.Equal([]string{"role"}, errs.Fields())
}

func (suite *PracticeServiceTestSuite) TestCreatePublishesRecords() {
	suite.Require().Len(suite.publisher.records, 3)
	suite.Equal(publishedRecord{entity: "user", event: common.EventCreated, id: suite.attorney.ID}, suite.publisher.records[0])
	suite.Equal("client", suite.publisher.records[1].entity)
	suite.Equal("case_type", suite.publisher.records[2].entity)
	suite.Equal(float64(1), testutil.ToFloat64(suite.svc.Metrics.RecordsCreated.WithLabelValues("client")))
	suite.Equal(float64(0), testutil.ToFloat64(suite.svc.Metrics.PublishFailures.WithLabelValues("client")))
}

func (suite *PracticeServiceTestSuite) TestPublishFailureKeepsRecord() {
	svc := service.NewPracticeService(suite.svc.Config, suite.svc.DB, zerolog.Nop(), failingPublisher{})
	user, err := svc.CreateUser(suite.ctx, &schemas.UserCreate{
		Email:     "pat@firm.test",
		FirstName: "Pat",
		LastName:  "Kim",
		Role:      common.UserRoleParalegal,
	})
	suite.Require().NoError(err)
	suite.NotZero(user.ID)
	suite.Equal(float64(1), testutil.ToFloat64(svc.Metrics.PublishFailures.WithLabelValues("user")))
}

func (suite *PracticeServiceTestSuite) TestCreateCaseAppliesTypeDefaults() {
	c := suite.createCase("2024-CV-001")
	suite.Equal(common.CaseStatusPending, c.Status)
	suite.Equal(int64(1), c.Version)
	suite.Require().NotNil(c.HourlyRate)
	suite.Equal("200.00", c.HourlyRate.String())

	found, err := suite.svc.FindCase(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Equal("200.00", found.HourlyRate.String())
	suite.Equal("Jane Doe", found.Client.DisplayName())
	suite.Equal("Litigation", found.CaseType.Name)
	suite.True(found.OpenedDate.IsZero())
}

func (suite *PracticeServiceTestSuite) TestCreateCaseErrors() {
	suite.createCase("2024-CV-001")
	_, err := suite.svc.CreateCase(suite.ctx, &schemas.CaseCreate{
		CaseNumber:   "2024-CV-001",
		Title:        "Again",
		ClientID:     suite.client.ID,
		CaseTypeID:   suite.hourly.ID,
		BillingModel: common.BillingModelHourly,
	})
	var dup *common.UniquenessViolation
	suite.True(errors.As(err, &dup), "expected UniquenessViolation, got %v", err)

	_, err = suite.svc.CreateCase(suite.ctx, &schemas.CaseCreate{
		CaseNumber:   "2024-CV-002",
		Title:        "Ghost",
		ClientID:     999,
		CaseTypeID:   suite.hourly.ID,
		BillingModel: common.BillingModelHourly,
	})
	var ref *common.ReferentialIntegrityError
	suite.Require().True(errors.As(err, &ref), "expected ReferentialIntegrityError, got %v", err)
	suite.Equal("client_id", ref.Field)

	fee := money.MustAmount("5000.00")
	_, err = suite.svc.CreateCase(suite.ctx, &schemas.CaseCreate{
		CaseNumber:   "2024-CV-003",
		Title:        "Mixed terms",
		ClientID:     suite.client.ID,
		CaseTypeID:   suite.hourly.ID,
		BillingModel: common.BillingModelHourly,
		FlatFee:      &fee,
	})
	var errs common.ValidationErrors
	suite.Require().True(errors.As(err, &errs))
	suite.Equal([]string{"flat_fee"}, errs.Fields())
}

func (suite *PracticeServiceTestSuite) TestUpdateCaseStatus() {
	c := suite.createCase("2024-CV-001")

	active, err := suite.svc.UpdateCaseStatus(suite.ctx, c.ID, common.CaseStatusActive, 1)
	suite.Require().NoError(err)
	suite.Equal(int64(2), active.Version)
	suite.False(active.OpenedDate.IsZero())

	_, err = suite.svc.UpdateCaseStatus(suite.ctx, c.ID, common.CaseStatusCompleted, 1)
	var conflict *common.ConcurrentUpdateError
	suite.True(errors.As(err, &conflict), "expected ConcurrentUpdateError, got %v", err)

	done, err := suite.svc.UpdateCaseStatus(suite.ctx, c.ID, common.CaseStatusCompleted, 2)
	suite.Require().NoError(err)
	suite.False(done.ClosedDate.IsZero())

	stored, err := suite.svc.FindCase(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Equal(common.CaseStatusCompleted, stored.Status)
	suite.Equal(int64(3), stored.Version)
	suite.False(stored.OpenedDate.IsZero())
	suite.False(stored.ClosedDate.IsZero())

	_, err = suite.svc.UpdateCaseStatus(suite.ctx, c.ID, common.CaseStatusActive, 3)
	var state *common.StateError
	suite.True(errors.As(err, &state), "expected StateError, got %v", err)
}

func (suite *PracticeServiceTestSuite) TestAssignAttorneyRequiresAttorneyRole() {
	c := suite.createCase("2024-CV-001")
	clerk := suite.createUser("clerk@firm.test", common.UserRoleAccountingStaff)

	_, err := suite.svc.AssignAttorney(suite.ctx, c.ID, clerk.ID, c.Version)
	var errs common.ValidationErrors
	var one *common.ValidationError
	suite.True(errors.As(err, &errs) || errors.As(err, &one), "expected a validation error, got %v", err)

	partner := suite.createUser("pia@firm.test", common.UserRoleManagingPartner)
	assigned, err := suite.svc.AssignAttorney(suite.ctx, c.ID, partner.ID, c.Version)
	suite.Require().NoError(err)
	suite.Equal(partner.ID, *assigned.AssignedAttorneyID)

	stored, err := suite.svc.FindCase(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Equal(partner.ID, *stored.AssignedAttorneyID)
	suite.Equal(c.Version+1, stored.Version)

	_, err = suite.svc.AssignAttorney(suite.ctx, c.ID, suite.attorney.ID, c.Version)
	var conflict *common.ConcurrentUpdateError
	suite.True(errors.As(err, &conflict), "expected ConcurrentUpdateError, got %v", err)

	closed, err := suite.svc.UpdateCaseStatus(suite.ctx, c.ID, common.CaseStatusStopped, stored.Version)
	suite.Require().NoError(err)
	_, err = suite.svc.AssignAttorney(suite.ctx, c.ID, suite.attorney.ID, closed.Version)
	var state *common.StateError
	suite.True(errors.As(err, &state), "expected StateError, got %v", err)

	stored, err = suite.svc.FindCase(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Equal(partner.ID, *stored.AssignedAttorneyID)
}

func (suite *PracticeServiceTestSuite) TestBeneficiaries() {
	org, err := suite.svc.CreateClient(suite.ctx, &schemas.ClientCreate{
		ClientType:       common.ClientTypeOrganization,
		OrganizationName: str("Acme Holdings"),
	})
	suite.Require().NoError(err)

	_, err = suite.svc.AddBeneficiary(suite.ctx, &schemas.BeneficiaryCreate{
		BeneficiaryID:    org.ID,
		DependentID:      suite.client.ID,
		RelationshipType: "employee",
	})
	suite.Require().NoError(err)

	deps, err := suite.svc.Dependents(suite.ctx, org.ID)
	suite.Require().NoError(err)
	suite.Require().Len(deps, 1)
	suite.Equal("Jane Doe", deps[0].Dependent.DisplayName())

	_, err = suite.svc.AddBeneficiary(suite.ctx, &schemas.BeneficiaryCreate{
		BeneficiaryID:    org.ID,
		DependentID:      404,
		RelationshipType: "employee",
	})
	var ref *common.ReferentialIntegrityError
	suite.True(errors.As(err, &ref), "expected ReferentialIntegrityError, got %v", err)
}

func (suite *PracticeServiceTestSuite) TestCaseJurisdictions() {
	c := suite.createCase("2024-CV-001")
	federal, err := suite.svc.CreateJurisdiction(suite.ctx, &schemas.JurisdictionCreate{Name: "S.D.N.Y.", JurisdictionType: "federal"})
	suite.Require().NoError(err)
	state, err := suite.svc.CreateJurisdiction(suite.ctx, &schemas.JurisdictionCreate{Name: "N.Y. Sup. Ct.", JurisdictionType: "state"})
	suite.Require().NoError(err)

	_, err = suite.svc.AddCaseJurisdiction(suite.ctx, &schemas.CaseJurisdictionCreate{CaseID: c.ID, JurisdictionID: state.ID})
	suite.Require().NoError(err)
	_, err = suite.svc.AddCaseJurisdiction(suite.ctx, &schemas.CaseJurisdictionCreate{CaseID: c.ID, JurisdictionID: federal.ID, IsPrimary: true})
	suite.Require().NoError(err)

	_, err = suite.svc.AddCaseJurisdiction(suite.ctx, &schemas.CaseJurisdictionCreate{CaseID: c.ID, JurisdictionID: federal.ID})
	var dup *common.UniquenessViolation
	suite.True(errors.As(err, &dup), "expected UniquenessViolation, got %v", err)

	venues, err := suite.svc.CaseJurisdictions(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Require().Len(venues, 2)
	suite.True(venues[0].IsPrimary)
	suite.Equal("S.D.N.Y.", venues[0].Jurisdiction.Name)
}

func (suite *PracticeServiceTestSuite) TestRecordTimeComputesTotal() {
	c := suite.createCase("2024-CV-001")
	entry := suite.recordTime(c.ID, "2.5", "150.00")
	suite.Equal("375.00", entry.TotalAmount.String())
	suite.Equal(common.BillableStatusBillable, entry.BillableStatus)

	unbilled, err := suite.svc.UnbilledTime(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Require().Len(unbilled, 1)
	suite.Equal("375.00", unbilled[0].TotalAmount.String())
	suite.Equal("2.5", unbilled[0].Hours.String())
}

func (suite *PracticeServiceTestSuite) TestRecordExpenseMarkup() {
	c := suite.createCase("2024-CV-001")
	ten := money.MustPercent("10")
	marked := suite.recordExpense(c.ID, "100.00", &ten)
	suite.Equal("110.00", marked.TotalAmount.String())

	plain := suite.recordExpense(c.ID, "100.00", nil)
	suite.Equal("0.00", plain.MarkupPercentage.String())
	suite.Equal("100.00", plain.TotalAmount.String())

	reimbursed, err := suite.svc.ReimburseExpense(suite.ctx, plain.ID)
	suite.Require().NoError(err)
	suite.True(reimbursed.IsReimbursed)
}

func (suite *PracticeServiceTestSuite) TestActivityLifecycle() {
	c := suite.createCase("2024-CV-001")
	activity, err := suite.svc.CreateActivity(suite.ctx, &schemas.ActivityCreate{CaseID: c.ID, Title: "Hearing", ActivityType: "court"})
	suite.Require().NoError(err)
	suite.Equal(common.BillableStatusNonBillable, activity.BillableStatus)

	activity, err = suite.svc.SetActivityBillableStatus(suite.ctx, activity.ID, common.BillableStatusBilled)
	suite.Require().NoError(err)
	_, err = suite.svc.SetActivityBillableStatus(suite.ctx, activity.ID, common.BillableStatusBillable)
	var state *common.StateError
	suite.True(errors.As(err, &state), "expected StateError, got %v", err)

	done, err := suite.svc.CompleteActivity(suite.ctx, activity.ID)
	suite.Require().NoError(err)
	suite.Equal(common.ActivityStatusCompleted, done.Status)
	suite.False(done.CompletedDate.IsZero())
}

func (suite *PracticeServiceTestSuite) TestInvoiceTotals() {
	c := suite.createCase("2024-CV-001")
	_, err := suite.svc.CreateInvoice(suite.ctx, &schemas.InvoiceCreate{
		CaseID:      c.ID,
		InvoiceDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	var errs common.ValidationErrors
	suite.Require().True(errors.As(err, &errs), "expected ValidationErrors, got %v", err)
	suite.Equal([]string{"due_date"}, errs.Fields())

	body := &schemas.InvoiceCreate{
		CaseID:      c.ID,
		InvoiceDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	invoice, err := suite.svc.CreateInvoice(suite.ctx, body)
	suite.Require().NoError(err)
	suite.Equal("INV-2024-CV-001-001", invoice.InvoiceNumber)
	suite.Equal(common.InvoiceStatusDraft, invoice.Status)
	suite.Equal(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), invoice.DueDate)
	suite.Equal(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), body.DueDate)

	first := suite.recordTime(c.ID, "2.0", "150.00")
	second := suite.recordTime(c.ID, "1.0", "200.00")
	expense := suite.recordExpense(c.ID, "50.00", nil)

	item, err := suite.svc.AddTimeToInvoice(suite.ctx, invoice.ID, first.ID, 1)
	suite.Require().NoError(err)
	suite.Equal(common.ResourceTypeAttorney, item.ResourceType)
	suite.Equal("300.00", item.Amount.String())
	_, err = suite.svc.AddTimeToInvoice(suite.ctx, invoice.ID, second.ID, 2)
	suite.Require().NoError(err)
	_, err = suite.svc.AddExpenseToInvoice(suite.ctx, invoice.ID, expense.ID, 3)
	suite.Require().NoError(err)

	found, err := suite.svc.FindInvoice(suite.ctx, invoice.ID)
	suite.Require().NoError(err)
	suite.Equal("500.00", found.SubtotalTime.String())
	suite.Equal("50.00", found.SubtotalExpenses.String())
	suite.Equal("550.00", found.TotalAmount.String())
	suite.Equal(int64(4), found.Version)
	suite.Len(found.LineItems, 3)

	unbilled, err := suite.svc.UnbilledTime(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Empty(unbilled)
}

func (suite *PracticeServiceTestSuite) TestInvoiceBillsSourceOnce() {
	c := suite.createCase("2024-CV-001")
	expense := suite.recordExpense(c.ID, "50.00", nil)
	first, err := suite.svc.CreateInvoice(suite.ctx, &schemas.InvoiceCreate{CaseID: c.ID, InvoiceDate: time.Now(), DueDate: time.Now().AddDate(0, 0, 30)})
	suite.Require().NoError(err)
	second, err := suite.svc.CreateInvoice(suite.ctx, &schemas.InvoiceCreate{CaseID: c.ID, InvoiceDate: time.Now(), DueDate: time.Now().AddDate(0, 0, 30)})
	suite.Require().NoError(err)
	suite.Equal("INV-2024-CV-001-002", second.InvoiceNumber)

	_, err = suite.svc.AddExpenseToInvoice(suite.ctx, first.ID, expense.ID, 1)
	suite.Require().NoError(err)
	_, err = suite.svc.AddExpenseToInvoice(suite.ctx, second.ID, expense.ID, 1)
	var dup *common.UniquenessViolation
	suite.True(errors.As(err, &dup), "expected UniquenessViolation, got %v", err)

	entry := suite.recordTime(c.ID, "1.0", "100.00")
	_, err = suite.svc.AddTimeToInvoice(suite.ctx, first.ID, entry.ID, 2)
	suite.Require().NoError(err)
	_, err = suite.svc.AddTimeToInvoice(suite.ctx, second.ID, entry.ID, 1)
	var state *common.StateError
	suite.True(errors.As(err, &state), "expected StateError, got %v", err)
}

func (suite *PracticeServiceTestSuite) TestInvoiceLifecycle() {
	c := suite.createCase("2024-CV-001")
	other := suite.createCase("2024-CV-002")
	invoice, err := suite.svc.CreateInvoice(suite.ctx, &schemas.InvoiceCreate{
		CaseID:      c.ID,
		InvoiceDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	suite.Require().NoError(err)

	foreign := suite.recordExpense(other.ID, "10.00", nil)
	_, err = suite.svc.AddExpenseToInvoice(suite.ctx, invoice.ID, foreign.ID, 1)
	var errs common.ValidationErrors
	var one *common.ValidationError
	suite.True(errors.As(err, &errs) || errors.As(err, &one), "expected a validation error, got %v", err)

	sent, err := suite.svc.SendInvoice(suite.ctx, invoice.ID, 1)
	suite.Require().NoError(err)
	suite.False(sent.SentAt.IsZero())

	mine := suite.recordExpense(c.ID, "10.00", nil)
	_, err = suite.svc.AddExpenseToInvoice(suite.ctx, invoice.ID, mine.ID, sent.Version)
	var state *common.StateError
	suite.True(errors.As(err, &state), "expected StateError, got %v", err)

	overdue, err := suite.svc.MarkOverdueInvoices(suite.ctx, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.Require().Len(overdue, 1)
	suite.Equal(common.InvoiceStatusOverdue, overdue[0].Status)
	suite.Equal(float64(1), testutil.ToFloat64(suite.svc.Metrics.InvoicesOverdue))

	paid, err := suite.svc.MarkInvoicePaid(suite.ctx, invoice.ID, overdue[0].Version)
	suite.Require().NoError(err)
	suite.False(paid.PaidAt.IsZero())

	stored, err := suite.svc.FindInvoice(suite.ctx, invoice.ID)
	suite.Require().NoError(err)
	suite.Equal(common.InvoiceStatusPaid, stored.Status)
	suite.Equal(paid.Version, stored.Version)
	suite.False(stored.SentAt.IsZero())
	suite.False(stored.PaidAt.IsZero())

	_, err = suite.svc.CancelInvoice(suite.ctx, invoice.ID, paid.Version)
	suite.True(errors.As(err, &state), "expected StateError, got %v", err)
}

func (suite *PracticeServiceTestSuite) TestTrustTransactions() {
	c := suite.createCase("2024-CV-001")
	other := suite.createCase("2024-CV-002")
	account, err := suite.svc.CreateTrustAccount(suite.ctx, &schemas.TrustAccountCreate{
		AccountName:   "IOLTA",
		AccountNumber: "000123",
		BankName:      "First Bank",
	})
	suite.Require().NoError(err)

	record := func(caseID int64, txType common.TransactionType, amount string) error {
		a := money.MustAmount(amount)
		_, err := suite.svc.RecordTrustTransaction(suite.ctx, &schemas.TrustTransactionCreate{
			TrustAccountID:  account.ID,
			CaseID:          caseID,
			TransactionType: txType,
			Amount:          &a,
			Description:     string(txType),
			TransactionDate: time.Now(),
		})
		return err
	}
	suite.Require().NoError(record(c.ID, common.TransactionTypePayment, "1000.00"))
	suite.Require().NoError(record(other.ID, common.TransactionTypePayment, "200.00"))
	suite.Require().NoError(record(c.ID, common.TransactionTypeBilling, "250.50"))

	err = record(other.ID, common.TransactionTypeRefund, "300.00")
	var insufficient *common.InsufficientTrustFundsError
	suite.Require().True(errors.As(err, &insufficient), "expected InsufficientTrustFundsError, got %v", err)
	suite.Equal("200.00", insufficient.Available)

	stored, err := suite.svc.FindTrustAccount(suite.ctx, account.ID)
	suite.Require().NoError(err)
	suite.Equal("949.50", stored.CurrentBalance.String())
	suite.Equal(int64(4), stored.Version)

	held, err := suite.svc.CaseTrustBalance(suite.ctx, account.ID, c.ID)
	suite.Require().NoError(err)
	suite.Equal("749.50", held.String())

	rec, err := suite.svc.ReconcileTrustAccount(suite.ctx, account.ID)
	suite.Require().NoError(err)
	suite.Equal("949.50", rec.Recorded.String())
	suite.True(rec.InBalance())
	suite.Equal(3, rec.Transactions)

	_, err = suite.svc.DB.NewUpdate().
		Model((*models.TrustAccount)(nil)).
		Set("current_balance = ?", "1000.00").
		Where("id = ?", account.ID).
		Exec(suite.ctx)
	suite.Require().NoError(err)
	all, err := suite.svc.ReconcileTrustAccounts(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(all, 1)
	suite.False(all[0].InBalance())
	suite.Equal("50.50", all[0].Drift.String())
	suite.Equal(50.5, testutil.ToFloat64(suite.svc.Metrics.TrustDrift.WithLabelValues("000123")))
}

func (suite *PracticeServiceTestSuite) createAccount(number string, accountType common.AccountType, parent *int64) *models.Account {
	account, err := suite.svc.CreateAccount(suite.ctx, &schemas.AccountCreate{
		AccountNumber:   number,
		AccountName:     "Account " + number,
		AccountType:     accountType,
		ParentAccountID: parent,
	})
	suite.Require().NoError(err)
	return account
}

func (suite *PracticeServiceTestSuite) TestChartOfAccounts() {
	assets := suite.createAccount("1000", common.AccountTypeAsset, nil)
	cash := suite.createAccount("1100", common.AccountTypeAsset, &assets.ID)
	petty := suite.createAccount("1110", common.AccountTypeAsset, &cash.ID)

	_, err := suite.svc.CreateAccount(suite.ctx, &schemas.AccountCreate{
		AccountNumber: "1000",
		AccountName:   "Duplicate",
		AccountType:   common.AccountTypeAsset,
	})
	var dup *common.UniquenessViolation
	suite.True(errors.As(err, &dup), "expected UniquenessViolation, got %v", err)

	_, err = suite.svc.CreateAccount(suite.ctx, &schemas.AccountCreate{
		AccountNumber:   "4000",
		AccountName:     "Fees",
		AccountType:     common.AccountTypeRevenue,
		ParentAccountID: &assets.ID,
	})
	var one *common.ValidationError
	suite.True(errors.As(err, &one), "expected ValidationError, got %v", err)

	_, err = suite.svc.ReparentAccount(suite.ctx, assets.ID, &petty.ID, assets.Version)
	var cycle *common.CycleError
	suite.Require().True(errors.As(err, &cycle), "expected CycleError, got %v", err)
	suite.Equal(assets.ID, cycle.AccountID)

	_, err = suite.svc.ReparentAccount(suite.ctx, cash.ID, &cash.ID, cash.Version)
	suite.True(errors.As(err, &cycle), "expected CycleError, got %v", err)

	moved, err := suite.svc.ReparentAccount(suite.ctx, petty.ID, &assets.ID, petty.Version)
	suite.Require().NoError(err)
	suite.Equal(assets.ID, *moved.ParentAccountID)
	suite.Equal(int64(2), moved.Version)

	stored, err := suite.svc.FindAccount(suite.ctx, petty.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(stored.ParentAccountID)
	suite.Equal(assets.ID, *stored.ParentAccountID)
	suite.Equal(int64(2), stored.Version)

	_, err = suite.svc.ReparentAccount(suite.ctx, petty.ID, nil, petty.Version)
	var conflict *common.ConcurrentUpdateError
	suite.True(errors.As(err, &conflict), "expected ConcurrentUpdateError, got %v", err)

	top, err := suite.svc.ReparentAccount(suite.ctx, petty.ID, nil, stored.Version)
	suite.Require().NoError(err)
	suite.Nil(top.ParentAccountID)
	stored, err = suite.svc.FindAccount(suite.ctx, petty.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.ParentAccountID)
	suite.Equal(int64(3), stored.Version)
}

func (suite *PracticeServiceTestSuite) TestJournalAndTrialBalance() {
	assets := suite.createAccount("1000", common.AccountTypeAsset, nil)
	cash := suite.createAccount("1100", common.AccountTypeAsset, &assets.ID)
	fees := suite.createAccount("4000", common.AccountTypeRevenue, nil)

	line := func(accountID int64, debit, credit string) schemas.JournalLineCreate {
		d, c := money.MustAmount(debit), money.MustAmount(credit)
		return schemas.JournalLineCreate{AccountID: accountID, DebitAmount: &d, CreditAmount: &c}
	}
	entries, err := suite.svc.PostJournalTransaction(suite.ctx, &schemas.JournalTransactionCreate{
		EntryDate:   time.Now(),
		Description: "Fee received",
		CreatedByID: suite.attorney.ID,
		Lines:       []schemas.JournalLineCreate{line(cash.ID, "550.00", "0"), line(fees.ID, "0", "550.00")},
	})
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)
	suite.Equal(entries[0].TransactionID, entries[1].TransactionID)

	posted, err := suite.svc.JournalTransaction(suite.ctx, entries[0].TransactionID)
	suite.Require().NoError(err)
	suite.Len(posted, 2)

	_, err = suite.svc.PostJournalTransaction(suite.ctx, &schemas.JournalTransactionCreate{
		EntryDate:   time.Now(),
		Description: "Lopsided",
		CreatedByID: suite.attorney.ID,
		Lines:       []schemas.JournalLineCreate{line(cash.ID, "100.00", "0"), line(fees.ID, "0", "90.00")},
	})
	var unbalanced *common.UnbalancedTransactionError
	suite.True(errors.As(err, &unbalanced), "expected UnbalancedTransactionError, got %v", err)

	_, err = suite.svc.PostJournalTransaction(suite.ctx, &schemas.JournalTransactionCreate{
		EntryDate:   time.Now(),
		Description: "Unknown account",
		CreatedByID: suite.attorney.ID,
		Lines:       []schemas.JournalLineCreate{line(cash.ID, "10.00", "0"), line(999, "0", "10.00")},
	})
	var ref *common.ReferentialIntegrityError
	suite.True(errors.As(err, &ref), "expected ReferentialIntegrityError, got %v", err)

	tb, err := suite.svc.TrialBalance(suite.ctx)
	suite.Require().NoError(err)
	suite.True(tb.Balanced())
	suite.Equal("550.00", tb.TotalDebits.String())
	suite.Require().Len(tb.Rows, 3)
	suite.Equal("1000", tb.Rows[0].AccountNumber)
	suite.Equal("0.00", tb.Rows[0].Balance.String())
	suite.Equal("550.00", tb.Rows[0].Rollup.String())
	suite.Equal("550.00", tb.Rows[2].Balance.String())

	_, err = suite.svc.DeactivateAccount(suite.ctx, fees.ID, fees.Version)
	suite.Require().NoError(err)
	closed, err := suite.svc.FindAccount(suite.ctx, fees.ID)
	suite.Require().NoError(err)
	suite.False(closed.IsActive)
	suite.Equal(fees.Version+1, closed.Version)
	_, err = suite.svc.PostJournalTransaction(suite.ctx, &schemas.JournalTransactionCreate{
		EntryDate:   time.Now(),
		Description: "Closed account",
		CreatedByID: suite.attorney.ID,
		Lines:       []schemas.JournalLineCreate{line(cash.ID, "10.00", "0"), line(fees.ID, "0", "10.00")},
	})
	var state *common.StateError
	suite.True(errors.As(err, &state), "expected StateError, got %v", err)
}

func (suite *PracticeServiceTestSuite) TestDocumentsAndParties() {
	c := suite.createCase("2024-CV-001")
	_, err := suite.svc.AddDocument(suite.ctx, &schemas.DocumentCreate{
		CaseID:       c.ID,
		Title:        "Complaint",
		FilePath:     "/cases/2024-CV-001/complaint.pdf",
		FileName:     "complaint.pdf",
		FileSize:     2048,
		MimeType:     "application/pdf",
		UploadedByID: suite.attorney.ID,
	})
	suite.Require().NoError(err)
	docs, err := suite.svc.CaseDocuments(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Require().Len(docs, 1)
	suite.Equal(int64(2048), docs[0].FileSize)

	party, err := suite.svc.AddOpposingParty(suite.ctx, &schemas.OpposingPartyCreate{
		CaseID:           c.ID,
		PartyType:        common.ClientTypeOrganization,
		OrganizationName: str("Acme Corp"),
		CounselName:      str("Bob Stone"),
	})
	suite.Require().NoError(err)
	suite.Equal(models.Organization{Name: "Acme Corp"}, party.PartyDetails())

	_, err = suite.svc.AddOpposingParty(suite.ctx, &schemas.OpposingPartyCreate{
		CaseID:    404,
		PartyType: common.ClientTypeIndividual,
		FirstName: str("No"),
		LastName:  str("Case"),
	})
	var ref *common.ReferentialIntegrityError
	suite.True(errors.As(err, &ref), "expected ReferentialIntegrityError, got %v", err)
}

func str(s string) *string {
	return &s
}
