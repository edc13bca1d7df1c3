package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/pkg/enums"
)

// LineItem is one priced row on an invoice. TransactionValue is always
// recomputed server-side from UnitPrice × Quantity; client-supplied values
// are ignored. Position preserves insertion order for display.
type LineItem struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID        uuid.UUID          `gorm:"column:invoice_id;type:uuid;not null;index"`
	ProductName      string             `gorm:"column:product_name;not null"`
	UnitPrice        decimal.Decimal    `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity         int                `gorm:"column:quantity;not null"`
	Type             enums.LineItemType `gorm:"column:type;type:text;not null;default:'product'"`
	Description      *string            `gorm:"column:description"`
	TransactionValue decimal.Decimal    `gorm:"column:transaction_value;type:numeric(12,2);not null"`
	Position         int                `gorm:"column:position;not null;default:0"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (li *LineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}
