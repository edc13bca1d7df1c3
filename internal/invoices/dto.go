package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/enums"
)

// LineItemSpec is the client-facing shape of one invoice row. The transaction
// value is never accepted from input; it is recomputed from price × quantity.
type LineItemSpec struct {
	ProductName string             `json:"product_name" validate:"required"`
	UnitPrice   decimal.Decimal    `json:"unit_price"`
	Quantity    int                `json:"quantity" validate:"required"`
	Type        enums.LineItemType `json:"type,omitempty"`
	Description *string            `json:"description,omitempty"`
}

// CreateInvoiceInput captures everything needed to create an invoice.
type CreateInvoiceInput struct {
	BusinessUsername string
	ActorUserID      uuid.UUID
	CustomerName     string
	CustomerPhone    *string
	LineItems        []LineItemSpec
	Status           enums.InvoiceStatus
	DueDate          *time.Time
	Notes            *string
}

// InvoicePatch holds the mutable invoice fields for partial updates. Nil
// fields are left untouched; a non-nil LineItems slice replaces the whole
// line item set and recomputes the total.
type InvoicePatch struct {
	Status        *enums.InvoiceStatus `json:"status,omitempty"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	Notes         *string              `json:"notes,omitempty"`
	CustomerName  *string              `json:"customer_name,omitempty"`
	CustomerPhone *string              `json:"customer_phone,omitempty"`
	LineItems     *[]LineItemSpec      `json:"line_items,omitempty"`
}

// DeleteResult confirms which invoice was removed.
type DeleteResult struct {
	InvoiceNumber string `json:"invoice_number"`
	Status        string `json:"status"`
}

// InvoiceList is one page of invoices plus the cursor for the next page.
type InvoiceList struct {
	Items      []models.Invoice `json:"items"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}
