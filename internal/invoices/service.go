package invoices

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/internal/identity"
	"github.com/smeazy/invoicing-backend/internal/stats"
	"github.com/smeazy/invoicing-backend/pkg/db"
	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/enums"
	pkgerrors "github.com/smeazy/invoicing-backend/pkg/errors"
	"github.com/smeazy/invoicing-backend/pkg/logger"
	"github.com/smeazy/invoicing-backend/pkg/pagination"
)

// Service orchestrates the invoice lifecycle: numbering, line item
// construction, customer resolution, and the stats protocol all commit (or
// fail) as one unit.
type Service interface {
	Create(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error)
	Update(ctx context.Context, businessID uuid.UUID, invoiceNumber string, patch InvoicePatch) (*models.Invoice, error)
	Delete(ctx context.Context, businessID uuid.UUID, invoiceNumber string) (*DeleteResult, error)
	GetByNumber(ctx context.Context, businessID uuid.UUID, invoiceNumber string) (*models.Invoice, error)
	ListForBusiness(ctx context.Context, businessID uuid.UUID, params pagination.Params) (*InvoiceList, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*InvoiceList, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CustomerProvisioner creates a customer identity inside the invoice
// transaction when the named customer has no account yet.
type CustomerProvisioner interface {
	ProvisionCustomer(ctx context.Context, tx *gorm.DB, fullName string, phoneNumber *string) (*identity.ProvisionedCustomer, error)
}

// Notifier delivers a best-effort message about a created invoice. When the
// customer account was provisioned for this invoice, tempPassword carries the
// one-time password to include; it is empty otherwise. Failures never roll
// back the invoice.
type Notifier interface {
	InvoiceCreated(ctx context.Context, invoice *models.Invoice, tempPassword string)
}

// ServiceParams packages the dependencies for the lifecycle service.
type ServiceParams struct {
	DB          *db.Client
	Repo        Repository
	Users       identity.Repository
	Provisioner CustomerProvisioner
	Stats       stats.Service
	Notifier    Notifier
	Logger      *logger.Logger
}

type service struct {
	tx          txRunner
	repo        Repository
	users       identity.Repository
	provisioner CustomerProvisioner
	stats       stats.Service
	notifier    Notifier
	logg        *logger.Logger
}

// NewService builds the invoice lifecycle service. The notifier is optional;
// everything else is required.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice repository required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identity repository required")
	}
	if params.Provisioner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer provisioner required")
	}
	if params.Stats == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stats service required")
	}
	return &service{
		tx:          params.DB,
		repo:        params.Repo,
		users:       params.Users,
		provisioner: params.Provisioner,
		stats:       params.Stats,
		notifier:    params.Notifier,
		logg:        params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	username := strings.TrimSpace(input.BusinessUsername)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business username is required")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	status := input.Status
	if status == "" {
		status = enums.InvoiceStatusDraft
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice status")
	}

	business, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find business")
	}
	if business.ID != input.ActorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot issue invoices for another business")
	}

	items, total, err := buildLineItems(input.LineItems)
	if err != nil {
		return nil, err
	}

	var created *models.Invoice
	var tempPassword string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer, customerName, customerPassword, err := s.resolveCustomer(ctx, tx, input)
		if err != nil {
			return err
		}
		tempPassword = customerPassword

		seq, err := s.stats.NextSequence(ctx, tx, business.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read invoice sequence")
		}

		invoice := &models.Invoice{
			BusinessID:    business.ID,
			BusinessName:  business.FullName,
			CustomerName:  customerName,
			CustomerPhone: input.CustomerPhone,
			InvoiceNumber: FormatInvoiceNumber(business.ID, seq),
			TotalAmount:   total,
			Status:        status,
			DueDate:       input.DueDate,
			Notes:         input.Notes,
			LineItems:     items,
		}
		if customer != nil {
			invoice.CustomerID = &customer.ID
			if invoice.CustomerPhone == nil && customer.PhoneNumber != "" {
				invoice.CustomerPhone = &customer.PhoneNumber
			}
		}

		if err := s.repo.WithTx(tx).Create(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist invoice")
		}

		if err := s.stats.RecordInvoiceSent(ctx, tx, business.ID, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record invoice sent")
		}
		if customer != nil {
			if err := s.stats.RecordInvoiceReceived(ctx, tx, customer.ID, invoice); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record invoice received")
			}
		}

		created = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.InvoiceCreated(ctx, created, tempPassword)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithInvoiceNumber(ctx, created.InvoiceNumber), "invoice created")
	}
	return created, nil
}

// resolveCustomer binds the invoice to an existing user by phone, provisions
// a new customer account when only a name is known, or leaves the invoice
// anonymous when no phone is supplied. The third return is the provisioned
// account's one-time password, empty for existing and anonymous customers.
func (s *service) resolveCustomer(ctx context.Context, tx *gorm.DB, input CreateInvoiceInput) (*models.User, string, string, error) {
	name := strings.TrimSpace(input.CustomerName)
	phone := ""
	if input.CustomerPhone != nil {
		phone = strings.TrimSpace(*input.CustomerPhone)
	}

	if phone != "" {
		existing, err := s.users.WithTx(tx).FindByPhone(ctx, phone)
		if err == nil {
			if name == "" {
				name = existing.FullName
			}
			return existing, name, "", nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find customer by phone")
		}
	}

	if name == "" {
		return nil, "", "", pkgerrors.New(pkgerrors.CodeValidation, "customer name or a registered customer phone is required")
	}

	if phone == "" {
		// anonymous invoice: denormalized name only, no account
		return nil, name, "", nil
	}

	provisioned, err := s.provisioner.ProvisionCustomer(ctx, tx, name, input.CustomerPhone)
	if err != nil {
		return nil, "", "", err
	}
	return provisioned.User, name, provisioned.TempPassword, nil
}

func (s *service) Update(ctx context.Context, businessID uuid.UUID, invoiceNumber string, patch InvoicePatch) (*models.Invoice, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice status")
	}
	if patch.LineItems != nil && len(*patch.LineItems) == 0 {
		// an invoice never exists without line items; an empty replacement
		// set is a client mistake, not a request to clear the invoice
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}
	if patch.CustomerName != nil && strings.TrimSpace(*patch.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name must not be blank")
	}

	var updated *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		invoice, err := s.findOwned(ctx, repo, businessID, invoiceNumber)
		if err != nil {
			return err
		}

		if patch.LineItems != nil {
			items, total, err := buildLineItems(*patch.LineItems)
			if err != nil {
				return err
			}
			if err := repo.DeleteLineItems(ctx, invoice.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "discard line items")
			}
			for i := range items {
				items[i].InvoiceID = invoice.ID
			}
			if err := repo.CreateLineItems(ctx, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert line items")
			}
			invoice.LineItems = items
			invoice.TotalAmount = total
		}

		if patch.Status != nil {
			invoice.Status = *patch.Status
		}
		if patch.DueDate != nil {
			invoice.DueDate = patch.DueDate
		}
		if patch.Notes != nil {
			invoice.Notes = patch.Notes
		}
		if patch.CustomerName != nil {
			invoice.CustomerName = strings.TrimSpace(*patch.CustomerName)
		}
		if patch.CustomerPhone != nil {
			invoice.CustomerPhone = patch.CustomerPhone
		}

		if err := repo.Update(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist invoice update")
		}

		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, businessID uuid.UUID, invoiceNumber string) (*DeleteResult, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		invoice, err := s.findOwned(ctx, repo, businessID, invoiceNumber)
		if err != nil {
			return err
		}

		// previously recorded stats stay as history; deletes never reverse them
		if err := repo.DeleteLineItems(ctx, invoice.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete line items")
		}
		if err := repo.Delete(ctx, invoice.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithInvoiceNumber(ctx, invoiceNumber), "invoice deleted")
	}
	return &DeleteResult{InvoiceNumber: invoiceNumber, Status: "deleted"}, nil
}

func (s *service) GetByNumber(ctx context.Context, businessID uuid.UUID, invoiceNumber string) (*models.Invoice, error) {
	return s.findOwned(ctx, s.repo, businessID, invoiceNumber)
}

func (s *service) ListForBusiness(ctx context.Context, businessID uuid.UUID, params pagination.Params) (*InvoiceList, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	list, err := s.repo.ListByBusiness(ctx, businessID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list business invoices")
	}
	return list, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*InvoiceList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	list, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customer invoices")
	}
	return list, nil
}

// findOwned resolves an invoice by number and checks ownership. A missing
// invoice and someone else's invoice surface as distinct errors.
func (s *service) findOwned(ctx context.Context, repo Repository, businessID uuid.UUID, invoiceNumber string) (*models.Invoice, error) {
	number := strings.TrimSpace(invoiceNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}

	invoice, err := repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find invoice")
	}
	if invoice.BusinessID != businessID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invoice belongs to another business")
	}
	return invoice, nil
}
