package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/pkg/enums"
)

// Invoice is a bill from a business user to a customer. The customer may be
// anonymous, in which case CustomerID is nil and the denormalized name/phone
// columns are the only record of the recipient.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID    uuid.UUID           `gorm:"column:business_id;type:uuid;not null;index"`
	CustomerID    *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	BusinessName  string              `gorm:"column:business_name;not null"`
	CustomerName  string              `gorm:"column:customer_name;not null"`
	CustomerPhone *string             `gorm:"column:customer_phone"`
	InvoiceNumber string              `gorm:"column:invoice_number;type:text;not null;uniqueIndex"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status        enums.InvoiceStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	DueDate       *time.Time          `gorm:"column:due_date"`
	Notes         *string             `gorm:"column:notes"`
	LineItems     []LineItem          `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
