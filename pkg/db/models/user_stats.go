package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserStats holds the running counters for one user. Exactly one row exists
// per user, created in the same transaction as the user itself. Only the
// stats ledger mutates these columns.
type UserStats struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	TotalInvoicesSent     int64           `gorm:"column:total_invoices_sent;not null;default:0"`
	TotalInvoicesReceived int64           `gorm:"column:total_invoices_received;not null;default:0"`
	TotalAmountPaidIn     decimal.Decimal `gorm:"column:total_amount_paid_in;type:numeric(12,2);not null;default:0"`
	TotalAmountPaidOut    decimal.Decimal `gorm:"column:total_amount_paid_out;type:numeric(12,2);not null;default:0"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *UserStats) TableName() string {
	return "user_stats"
}

func (s *UserStats) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
