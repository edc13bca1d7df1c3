package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/internal/identity"
	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/enums"
	pkgerrors "github.com/smeazy/invoicing-backend/pkg/errors"
	"github.com/smeazy/invoicing-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubInvoiceRepo struct {
	byNumber map[string]*models.Invoice
	items    map[uuid.UUID][]models.LineItem
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{
		byNumber: map[string]*models.Invoice{},
		items:    map[uuid.UUID][]models.LineItem{},
	}
}

func (r *stubInvoiceRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	for i := range invoice.LineItems {
		invoice.LineItems[i].InvoiceID = invoice.ID
	}
	r.byNumber[invoice.InvoiceNumber] = invoice
	r.items[invoice.ID] = invoice.LineItems
	return nil
}

func (r *stubInvoiceRepo) CreateLineItems(ctx context.Context, items []models.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	id := items[0].InvoiceID
	r.items[id] = append(r.items[id], items...)
	return nil
}

func (r *stubInvoiceRepo) FindByNumber(ctx context.Context, invoiceNumber string) (*models.Invoice, error) {
	invoice, ok := r.byNumber[invoiceNumber]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *invoice
	copied.LineItems = r.items[invoice.ID]
	return &copied, nil
}

func (r *stubInvoiceRepo) Update(ctx context.Context, invoice *models.Invoice) error {
	r.byNumber[invoice.InvoiceNumber] = invoice
	return nil
}

func (r *stubInvoiceRepo) DeleteLineItems(ctx context.Context, invoiceID uuid.UUID) error {
	delete(r.items, invoiceID)
	return nil
}

func (r *stubInvoiceRepo) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	for number, invoice := range r.byNumber {
		if invoice.ID == invoiceID {
			delete(r.byNumber, number)
		}
	}
	return nil
}

func (r *stubInvoiceRepo) CountLineItems(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	return int64(len(r.items[invoiceID])), nil
}

func (r *stubInvoiceRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, params pagination.Params) (*InvoiceList, error) {
	list := &InvoiceList{}
	for _, invoice := range r.byNumber {
		if invoice.BusinessID == businessID {
			list.Items = append(list.Items, *invoice)
		}
	}
	return list, nil
}

func (r *stubInvoiceRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*InvoiceList, error) {
	list := &InvoiceList{}
	for _, invoice := range r.byNumber {
		if invoice.CustomerID != nil && *invoice.CustomerID == customerID {
			list.Items = append(list.Items, *invoice)
		}
	}
	return list, nil
}

type stubUsersRepo struct {
	byUsername map[string]*models.User
	byPhone    map[string]*models.User
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{
		byUsername: map[string]*models.User{},
		byPhone:    map[string]*models.User{},
	}
}

func (r *stubUsersRepo) add(user *models.User) *models.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.byUsername[user.Username] = user
	if user.PhoneNumber != "" {
		r.byPhone[user.PhoneNumber] = user
	}
	return user
}

func (r *stubUsersRepo) WithTx(tx *gorm.DB) identity.Repository { return r }

func (r *stubUsersRepo) Create(ctx context.Context, user *models.User) error {
	r.add(user)
	return nil
}

func (r *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range r.byUsername {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsersRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	if user, ok := r.byPhone[phone]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsersRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := r.byUsername[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsersRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, ok := r.byUsername[username]
	return ok, nil
}

type stubProvisioner struct {
	users       *stubUsersRepo
	provisioned []*models.User
}

func (p *stubProvisioner) ProvisionCustomer(ctx context.Context, tx *gorm.DB, fullName string, phone *string) (*identity.ProvisionedCustomer, error) {
	user := &models.User{FullName: fullName, Role: enums.UserRoleCustomer}
	if phone != nil {
		user.PhoneNumber = *phone
	}
	p.users.add(user)
	p.provisioned = append(p.provisioned, user)
	return &identity.ProvisionedCustomer{User: user, TempPassword: "temp-pass-1"}, nil
}

type statsCall struct {
	userID  uuid.UUID
	invoice *models.Invoice
}

type stubStatsService struct {
	sentCount int64
	sent      []statsCall
	received  []statsCall
}

func (s *stubStatsService) NextSequence(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (int64, error) {
	return s.sentCount + 1, nil
}

func (s *stubStatsService) RecordInvoiceSent(ctx context.Context, tx *gorm.DB, businessID uuid.UUID, invoice *models.Invoice) error {
	s.sentCount++
	s.sent = append(s.sent, statsCall{userID: businessID, invoice: invoice})
	return nil
}

func (s *stubStatsService) RecordInvoiceReceived(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, invoice *models.Invoice) error {
	s.received = append(s.received, statsCall{userID: customerID, invoice: invoice})
	return nil
}

func (s *stubStatsService) Fetch(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	return &models.UserStats{UserID: userID, TotalInvoicesSent: s.sentCount}, nil
}

type stubNotifier struct {
	notified  []*models.Invoice
	passwords []string
}

func (n *stubNotifier) InvoiceCreated(ctx context.Context, invoice *models.Invoice, tempPassword string) {
	n.notified = append(n.notified, invoice)
	n.passwords = append(n.passwords, tempPassword)
}

type serviceFixture struct {
	svc      *service
	repo     *stubInvoiceRepo
	users    *stubUsersRepo
	prov     *stubProvisioner
	stats    *stubStatsService
	notifier *stubNotifier
	business *models.User
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	users := newStubUsersRepo()
	business := users.add(&models.User{
		Username:    "acme",
		FullName:    "ACME Ltd",
		PhoneNumber: "+254700000000",
		Role:        enums.UserRoleBusiness,
	})

	fixture := &serviceFixture{
		repo:     newStubInvoiceRepo(),
		users:    users,
		prov:     &stubProvisioner{users: users},
		stats:    &stubStatsService{},
		notifier: &stubNotifier{},
		business: business,
	}
	fixture.svc = &service{
		tx:          stubTxRunner{},
		repo:        fixture.repo,
		users:       users,
		provisioner: fixture.prov,
		stats:       fixture.stats,
		notifier:    fixture.notifier,
	}
	return fixture
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateInvoiceEndToEnd(t *testing.T) {
	f := newServiceFixture(t)
	phone := "0700000001"

	invoice, err := f.svc.Create(context.Background(), CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerName:     "Bob",
		CustomerPhone:    &phone,
		LineItems: []LineItemSpec{
			{ProductName: "Widget", UnitPrice: price("100"), Quantity: 2},
			{ProductName: "Bolt", UnitPrice: price("50"), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !invoice.TotalAmount.Equal(price("250")) {
		t.Fatalf("total = %s, want 250", invoice.TotalAmount)
	}
	want := FormatInvoiceNumber(f.business.ID, 1)
	if invoice.InvoiceNumber != want {
		t.Fatalf("number = %q, want %q", invoice.InvoiceNumber, want)
	}
	if invoice.Status != enums.InvoiceStatusDraft {
		t.Fatalf("status = %q, want draft", invoice.Status)
	}

	if len(f.prov.provisioned) != 1 || f.prov.provisioned[0].FullName != "Bob" {
		t.Fatal("expected customer account provisioned for new phone")
	}
	if invoice.CustomerID == nil || *invoice.CustomerID != f.prov.provisioned[0].ID {
		t.Fatal("invoice not bound to provisioned customer")
	}

	if len(f.stats.sent) != 1 || f.stats.sent[0].userID != f.business.ID {
		t.Fatal("expected sent stats recorded for business")
	}
	if len(f.stats.received) != 1 || f.stats.received[0].userID != *invoice.CustomerID {
		t.Fatal("expected received stats recorded for customer")
	}
	if f.stats.sentCount != 1 {
		t.Fatalf("sent count = %d, want 1", f.stats.sentCount)
	}

	if len(f.notifier.notified) != 1 {
		t.Fatal("expected notification dispatch")
	}
	// a provisioned customer's one-time password rides along to the notifier
	if f.notifier.passwords[0] != "temp-pass-1" {
		t.Fatalf("notifier password = %q, want provisioned temp password", f.notifier.passwords[0])
	}

	// transaction values are exact decimals
	if !invoice.LineItems[0].TransactionValue.Equal(price("200")) ||
		!invoice.LineItems[1].TransactionValue.Equal(price("50")) {
		t.Fatalf("line item values = %s, %s",
			invoice.LineItems[0].TransactionValue, invoice.LineItems[1].TransactionValue)
	}
}

func TestCreateInvoiceSequenceIncrements(t *testing.T) {
	f := newServiceFixture(t)

	for i := 1; i <= 3; i++ {
		invoice, err := f.svc.Create(context.Background(), CreateInvoiceInput{
			BusinessUsername: "acme",
			ActorUserID:      f.business.ID,
			CustomerName:     "Bob",
			LineItems:        []LineItemSpec{{ProductName: "Widget", UnitPrice: price("10"), Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
		want := FormatInvoiceNumber(f.business.ID, int64(i))
		if invoice.InvoiceNumber != want {
			t.Fatalf("number = %q, want %q", invoice.InvoiceNumber, want)
		}
	}
}

func TestCreateInvoiceBindsExistingCustomer(t *testing.T) {
	f := newServiceFixture(t)
	existing := f.users.add(&models.User{
		Username:    "bob",
		FullName:    "Bob Builder",
		PhoneNumber: "0700000001",
		Role:        enums.UserRoleCustomer,
	})

	phone := "0700000001"
	invoice, err := f.svc.Create(context.Background(), CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerPhone:    &phone,
		LineItems:        []LineItemSpec{{ProductName: "Widget", UnitPrice: price("10"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if invoice.CustomerID == nil || *invoice.CustomerID != existing.ID {
		t.Fatal("expected invoice bound to existing customer")
	}
	if invoice.CustomerName != "Bob Builder" {
		t.Fatalf("customer name = %q, want denormalized full name", invoice.CustomerName)
	}
	if len(f.prov.provisioned) != 0 {
		t.Fatal("existing customer must not be re-provisioned")
	}
	if f.notifier.passwords[0] != "" {
		t.Fatal("existing customers must not receive a generated password")
	}
}

func TestCreateInvoiceAnonymousCustomer(t *testing.T) {
	f := newServiceFixture(t)

	invoice, err := f.svc.Create(context.Background(), CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerName:     "Walk-in",
		LineItems:        []LineItemSpec{{ProductName: "Widget", UnitPrice: price("10"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if invoice.CustomerID != nil {
		t.Fatal("anonymous invoice must not bind a customer")
	}
	if len(f.stats.received) != 0 {
		t.Fatal("no received stats for anonymous customers")
	}
	if len(f.prov.provisioned) != 0 {
		t.Fatal("anonymous customers are not provisioned")
	}
}

func TestCreatePaidInvoicePassesStatusToStats(t *testing.T) {
	f := newServiceFixture(t)
	phone := "0700000001"

	invoice, err := f.svc.Create(context.Background(), CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerName:     "Bob",
		CustomerPhone:    &phone,
		Status:           enums.InvoiceStatusPaid,
		LineItems:        []LineItemSpec{{ProductName: "Widget", UnitPrice: price("100"), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if f.stats.sent[0].invoice.Status != enums.InvoiceStatusPaid {
		t.Fatal("stats ledger must see the paid status")
	}
	if !f.stats.received[0].invoice.TotalAmount.Equal(invoice.TotalAmount) {
		t.Fatal("stats ledger must see the invoice total")
	}
}

func TestCreateInvoiceAuthorization(t *testing.T) {
	f := newServiceFixture(t)
	items := []LineItemSpec{{ProductName: "Widget", UnitPrice: price("10"), Quantity: 1}}
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      uuid.New(),
		CustomerName:     "Bob",
		LineItems:        items,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		BusinessUsername: "ghost",
		ActorUserID:      f.business.ID,
		CustomerName:     "Bob",
		LineItems:        items,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerName:     "Bob",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for empty line items, got %v", err)
	}

	// unknown phone and no name: nothing to resolve or denormalize
	phone := "0799999999"
	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerPhone:    &phone,
		LineItems:        []LineItemSpec{{ProductName: "Widget", UnitPrice: price("10"), Quantity: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for unresolvable customer, got %v", err)
	}

	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerName:     "Bob",
		LineItems:        []LineItemSpec{{ProductName: "Widget", UnitPrice: price("-1"), Quantity: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for negative price, got %v", err)
	}

	_, err = f.svc.Create(ctx, CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerName:     "Bob",
		LineItems:        []LineItemSpec{{ProductName: "Widget", UnitPrice: price("10"), Quantity: 0}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for zero quantity, got %v", err)
	}
}

func createTestInvoice(t *testing.T, f *serviceFixture) *models.Invoice {
	t.Helper()
	invoice, err := f.svc.Create(context.Background(), CreateInvoiceInput{
		BusinessUsername: "acme",
		ActorUserID:      f.business.ID,
		CustomerName:     "Bob",
		LineItems: []LineItemSpec{
			{ProductName: "Widget", UnitPrice: price("100"), Quantity: 2},
			{ProductName: "Bolt", UnitPrice: price("50"), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return invoice
}

func TestUpdateInvoiceReplacesLineItems(t *testing.T) {
	f := newServiceFixture(t)
	invoice := createTestInvoice(t, f)

	newItems := []LineItemSpec{{ProductName: "Screw", UnitPrice: price("10"), Quantity: 3}}
	updated, err := f.svc.Update(context.Background(), f.business.ID, invoice.InvoiceNumber, InvoicePatch{
		LineItems: &newItems,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if !updated.TotalAmount.Equal(price("30")) {
		t.Fatalf("total = %s, want 30", updated.TotalAmount)
	}
	if len(updated.LineItems) != 1 {
		t.Fatalf("line items = %d, want 1", len(updated.LineItems))
	}
	count, _ := f.repo.CountLineItems(context.Background(), invoice.ID)
	if count != 1 {
		t.Fatalf("persisted line items = %d, want 1", count)
	}

	// stats are never recomputed on update
	if f.stats.sentCount != 1 {
		t.Fatalf("sent count = %d, want 1", f.stats.sentCount)
	}
}

func TestUpdateInvoiceRejectsEmptyLineItems(t *testing.T) {
	f := newServiceFixture(t)
	invoice := createTestInvoice(t, f)

	empty := []LineItemSpec{}
	_, err := f.svc.Update(context.Background(), f.business.ID, invoice.InvoiceNumber, InvoicePatch{
		LineItems: &empty,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for empty line item set, got %v", err)
	}

	// the invoice keeps its items and total
	reloaded, err := f.repo.FindByNumber(context.Background(), invoice.InvoiceNumber)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.LineItems) != 2 {
		t.Fatalf("line items = %d, want untouched 2", len(reloaded.LineItems))
	}
	if !reloaded.TotalAmount.Equal(price("250")) {
		t.Fatalf("total = %s, want untouched 250", reloaded.TotalAmount)
	}
}

func TestUpdateInvoiceScalarPatch(t *testing.T) {
	f := newServiceFixture(t)
	invoice := createTestInvoice(t, f)

	status := enums.InvoiceStatusPaid
	notes := "paid in cash"
	due := time.Now().Add(24 * time.Hour)
	updated, err := f.svc.Update(context.Background(), f.business.ID, invoice.InvoiceNumber, InvoicePatch{
		Status:  &status,
		Notes:   &notes,
		DueDate: &due,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Status != enums.InvoiceStatusPaid {
		t.Fatalf("status = %q", updated.Status)
	}
	if updated.Notes == nil || *updated.Notes != "paid in cash" {
		t.Fatal("notes not applied")
	}
	// untouched fields survive
	if !updated.TotalAmount.Equal(price("250")) {
		t.Fatalf("total changed to %s", updated.TotalAmount)
	}
	if len(updated.LineItems) != 2 {
		t.Fatalf("line items = %d, want untouched 2", len(updated.LineItems))
	}
}

func TestUpdateInvoiceOwnership(t *testing.T) {
	f := newServiceFixture(t)
	invoice := createTestInvoice(t, f)
	status := enums.InvoiceStatusPaid

	_, err := f.svc.Update(context.Background(), uuid.New(), invoice.InvoiceNumber, InvoicePatch{Status: &status})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	_, err = f.svc.Update(context.Background(), f.business.ID, "INV-missing-00001", InvoicePatch{Status: &status})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteInvoice(t *testing.T) {
	f := newServiceFixture(t)
	invoice := createTestInvoice(t, f)

	result, err := f.svc.Delete(context.Background(), f.business.ID, invoice.InvoiceNumber)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.InvoiceNumber != invoice.InvoiceNumber || result.Status != "deleted" {
		t.Fatalf("result = %+v", result)
	}

	if _, err := f.repo.FindByNumber(context.Background(), invoice.InvoiceNumber); err == nil {
		t.Fatal("invoice still queryable after delete")
	}
	count, _ := f.repo.CountLineItems(context.Background(), invoice.ID)
	if count != 0 {
		t.Fatalf("orphan line items = %d", count)
	}

	// delete never reverses recorded stats
	if f.stats.sentCount != 1 {
		t.Fatalf("sent count = %d, want 1", f.stats.sentCount)
	}
}

func TestDeleteInvoiceOwnership(t *testing.T) {
	f := newServiceFixture(t)
	invoice := createTestInvoice(t, f)

	_, err := f.svc.Delete(context.Background(), uuid.New(), invoice.InvoiceNumber)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	_, err = f.svc.Delete(context.Background(), f.business.ID, "INV-missing-00001")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	id := uuid.MustParse("3e94f1a2-7c81-4a8f-9a43-0a53c2a6de1b")
	got := FormatInvoiceNumber(id, 7)
	want := "INV-3e94f1a2-7c81-4a8f-9a43-0a53c2a6de1b-00007"
	if got != want {
		t.Fatalf("number = %q, want %q", got, want)
	}
}
