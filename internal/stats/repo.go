package stats

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
)

// Repository manages persistence for per-user invoice counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, stats *models.UserStats) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)
	IncrementSent(ctx context.Context, userID uuid.UUID, paidIn decimal.Decimal) (int64, error)
	IncrementReceived(ctx context.Context, userID uuid.UUID, paidOut decimal.Decimal) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stats repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, stats *models.UserStats) error {
	return r.db.WithContext(ctx).Create(stats).Error
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	var stats models.UserStats
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// FindByUserIDForUpdate takes a row lock on the stats record so the invoice
// sequence read and the subsequent increment cannot interleave with a
// concurrent create for the same business. sqlite has no FOR UPDATE; its
// single-writer model covers the same guarantee in dev/test.
func (r *repository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var stats models.UserStats
	if err := q.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *repository) IncrementSent(ctx context.Context, userID uuid.UUID, paidIn decimal.Decimal) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"total_invoices_sent":  gorm.Expr("total_invoices_sent + 1"),
			"total_amount_paid_in": gorm.Expr("total_amount_paid_in + ?", paidIn),
		})
	return result.RowsAffected, result.Error
}

func (r *repository) IncrementReceived(ctx context.Context, userID uuid.UUID, paidOut decimal.Decimal) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"total_invoices_received": gorm.Expr("total_invoices_received + 1"),
			"total_amount_paid_out":   gorm.Expr("total_amount_paid_out + ?", paidOut),
		})
	return result.RowsAffected, result.Error
}
