package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/enums"
	"github.com/smeazy/invoicing-backend/pkg/pagination"
)

func setupInvoicesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	invoices := `
CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  customer_id TEXT,
  business_name TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_phone TEXT,
  invoice_number TEXT NOT NULL UNIQUE,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  due_date DATETIME,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS line_items (
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  type TEXT NOT NULL DEFAULT 'product',
  description TEXT,
  transaction_value NUMERIC NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(invoices).Error)
	require.NoError(t, conn.Exec(lineItems).Error)

	return conn
}

func seedInvoice(t *testing.T, repo Repository, businessID uuid.UUID, number string) *models.Invoice {
	t.Helper()

	invoice := &models.Invoice{
		BusinessID:    businessID,
		BusinessName:  "ACME Ltd",
		CustomerName:  "Bob",
		InvoiceNumber: number,
		TotalAmount:   price("250"),
		Status:        enums.InvoiceStatusSent,
		LineItems: []models.LineItem{
			{ProductName: "Widget", UnitPrice: price("100"), Quantity: 2, Type: enums.LineItemTypeProduct, TransactionValue: price("200"), Position: 0},
			{ProductName: "Bolt", UnitPrice: price("50"), Quantity: 1, Type: enums.LineItemTypeProduct, TransactionValue: price("50"), Position: 1},
		},
	}
	require.NoError(t, repo.Create(context.Background(), invoice))
	return invoice
}

func TestRepositoryCreateAndReload(t *testing.T) {
	conn := setupInvoicesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	businessID := uuid.New()
	created := seedInvoice(t, repo, businessID, "INV-test-00001")

	reloaded, err := repo.FindByNumber(ctx, "INV-test-00001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, reloaded.ID)
	require.Len(t, reloaded.LineItems, 2)
	assert.Equal(t, "Widget", reloaded.LineItems[0].ProductName)
	assert.Equal(t, "Bolt", reloaded.LineItems[1].ProductName)
	assert.True(t, reloaded.TotalAmount.Equal(price("250")))
	assert.True(t, reloaded.LineItems[0].TransactionValue.Equal(price("200")))

	_, err = repo.FindByNumber(ctx, "INV-test-99999")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryLineItemReplacement(t *testing.T) {
	conn := setupInvoicesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	invoice := seedInvoice(t, repo, uuid.New(), "INV-test-00001")

	require.NoError(t, repo.DeleteLineItems(ctx, invoice.ID))
	require.NoError(t, repo.CreateLineItems(ctx, []models.LineItem{
		{InvoiceID: invoice.ID, ProductName: "Screw", UnitPrice: price("10"), Quantity: 3, Type: enums.LineItemTypeProduct, TransactionValue: price("30"), Position: 0},
	}))

	invoice.TotalAmount = price("30")
	require.NoError(t, repo.Update(ctx, invoice))

	reloaded, err := repo.FindByNumber(ctx, invoice.InvoiceNumber)
	require.NoError(t, err)
	require.Len(t, reloaded.LineItems, 1)
	assert.Equal(t, "Screw", reloaded.LineItems[0].ProductName)
	assert.True(t, reloaded.TotalAmount.Equal(price("30")))
}

func TestRepositoryDeleteLeavesNoOrphans(t *testing.T) {
	conn := setupInvoicesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	invoice := seedInvoice(t, repo, uuid.New(), "INV-test-00001")

	require.NoError(t, repo.DeleteLineItems(ctx, invoice.ID))
	require.NoError(t, repo.Delete(ctx, invoice.ID))

	_, err := repo.FindByNumber(ctx, invoice.InvoiceNumber)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.CountLineItems(ctx, invoice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestRepositoryListByBusinessPagination(t *testing.T) {
	conn := setupInvoicesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	businessID := uuid.New()
	for i, number := range []string{"INV-test-00001", "INV-test-00002", "INV-test-00003"} {
		invoice := &models.Invoice{
			BusinessID:    businessID,
			BusinessName:  "ACME Ltd",
			CustomerName:  "Bob",
			InvoiceNumber: number,
			TotalAmount:   price("10"),
			Status:        enums.InvoiceStatusSent,
			CreatedAt:     time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(ctx, invoice))
	}
	// another business's invoice never shows up
	other := seedInvoice(t, repo, uuid.New(), "INV-other-00001")

	page, err := repo.ListByBusiness(ctx, businessID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "INV-test-00003", page.Items[0].InvoiceNumber)
	assert.Equal(t, "INV-test-00002", page.Items[1].InvoiceNumber)

	rest, err := repo.ListByBusiness(ctx, businessID, pagination.Params{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Nil(t, rest.NextCursor)
	assert.Equal(t, "INV-test-00001", rest.Items[0].InvoiceNumber)

	for _, item := range append(page.Items, rest.Items...) {
		assert.NotEqual(t, other.InvoiceNumber, item.InvoiceNumber)
	}
}

func TestRepositoryListByCustomer(t *testing.T) {
	conn := setupInvoicesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	invoice := &models.Invoice{
		BusinessID:    uuid.New(),
		CustomerID:    &customerID,
		BusinessName:  "ACME Ltd",
		CustomerName:  "Bob",
		InvoiceNumber: "INV-test-00001",
		TotalAmount:   price("10"),
		Status:        enums.InvoiceStatusSent,
	}
	require.NoError(t, repo.Create(ctx, invoice))

	page, err := repo.ListByCustomer(ctx, customerID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "INV-test-00001", page.Items[0].InvoiceNumber)

	empty, err := repo.ListByCustomer(ctx, uuid.New(), pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}
