package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/pagination"
)

// Repository manages persistence for invoices and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	CreateLineItems(ctx context.Context, items []models.LineItem) error
	FindByNumber(ctx context.Context, invoiceNumber string) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	DeleteLineItems(ctx context.Context, invoiceID uuid.UUID) error
	Delete(ctx context.Context, invoiceID uuid.UUID) error
	CountLineItems(ctx context.Context, invoiceID uuid.UUID) (int64, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, params pagination.Params) (*InvoiceList, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*InvoiceList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func orderedLineItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByNumber(ctx context.Context, invoiceNumber string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems", orderedLineItems).
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(invoice).Error
}

func (r *repository) DeleteLineItems(ctx context.Context, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Delete(&models.LineItem{}).Error
}

func (r *repository) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", invoiceID).
		Delete(&models.Invoice{}).Error
}

func (r *repository) CountLineItems(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LineItem{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListByBusiness(ctx context.Context, businessID uuid.UUID, params pagination.Params) (*InvoiceList, error) {
	return r.list(ctx, "business_id = ?", businessID, params)
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*InvoiceList, error) {
	return r.list(ctx, "customer_id = ?", customerID, params)
}

func (r *repository) list(ctx context.Context, ownerClause string, ownerID uuid.UUID, params pagination.Params) (*InvoiceList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).
		Preload("LineItems", orderedLineItems).
		Where(ownerClause, ownerID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, err
	}

	list := &InvoiceList{Items: invoices}
	if len(invoices) > limit {
		list.Items = invoices[:limit]
		last := list.Items[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}
