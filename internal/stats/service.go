package stats

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/enums"
)

// Service records invoice activity against per-user counters. Counters are
// only ever incremented here; updates and deletes elsewhere never reverse
// previously recorded activity.
type Service interface {
	NextSequence(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (int64, error)
	RecordInvoiceSent(ctx context.Context, tx *gorm.DB, businessID uuid.UUID, invoice *models.Invoice) error
	RecordInvoiceReceived(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, invoice *models.Invoice) error
	Fetch(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)
}

type service struct {
	repo Repository
}

// NewService wires a stats service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	return &service{repo: repo}, nil
}

// NextSequence reads the business's sent counter under a row lock and returns
// the next invoice sequence. Must be called inside the same transaction that
// later calls RecordInvoiceSent so the number and the counter move together.
func (s *service) NextSequence(ctx context.Context, tx *gorm.DB, businessID uuid.UUID) (int64, error) {
	if businessID == uuid.Nil {
		return 0, fmt.Errorf("business id is required")
	}
	stats, err := s.repo.WithTx(tx).FindByUserIDForUpdate(ctx, businessID)
	if err != nil {
		return 0, err
	}
	return stats.TotalInvoicesSent + 1, nil
}

func (s *service) RecordInvoiceSent(ctx context.Context, tx *gorm.DB, businessID uuid.UUID, invoice *models.Invoice) error {
	if businessID == uuid.Nil {
		return fmt.Errorf("business id is required")
	}
	if invoice == nil {
		return fmt.Errorf("invoice is required")
	}
	// missing stats rows are tolerated; RowsAffected == 0 is a no-op
	_, err := s.repo.WithTx(tx).IncrementSent(ctx, businessID, paidAmount(invoice))
	return err
}

func (s *service) RecordInvoiceReceived(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, invoice *models.Invoice) error {
	if customerID == uuid.Nil {
		return fmt.Errorf("customer id is required")
	}
	if invoice == nil {
		return fmt.Errorf("invoice is required")
	}
	_, err := s.repo.WithTx(tx).IncrementReceived(ctx, customerID, paidAmount(invoice))
	return err
}

func (s *service) Fetch(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	return s.repo.FindByUserID(ctx, userID)
}

func paidAmount(invoice *models.Invoice) decimal.Decimal {
	if invoice.Status == enums.InvoiceStatusPaid {
		return invoice.TotalAmount
	}
	return decimal.Zero
}
