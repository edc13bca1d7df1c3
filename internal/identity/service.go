package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/internal/stats"
	"github.com/smeazy/invoicing-backend/pkg/db"
	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/enums"
	pkgerrors "github.com/smeazy/invoicing-backend/pkg/errors"
	"github.com/smeazy/invoicing-backend/pkg/security"
)

// Service owns user identities. A user and its stats row are co-created in
// one transaction; neither exists without the other.
type Service interface {
	Register(ctx context.Context, input CreateUserInput) (*models.User, error)
	ProvisionCustomer(ctx context.Context, tx *gorm.DB, fullName string, phoneNumber *string) (*ProvisionedCustomer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams packages the dependencies for the identity service.
type ServiceParams struct {
	DB                 *db.Client
	Repo               Repository
	StatsRepo          stats.Repository
	Hasher             *security.Hasher
	TempPasswordLength int
}

type service struct {
	tx          txRunner
	repo        Repository
	statsRepo   stats.Repository
	hasher      *security.Hasher
	tempPwLen   int
}

// NewService builds an identity service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identity repository required")
	}
	if params.StatsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stats repository required")
	}
	if params.Hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher required")
	}
	tempPwLen := params.TempPasswordLength
	if tempPwLen <= 0 {
		tempPwLen = 8
	}
	return &service{
		tx:        params.DB,
		repo:      params.Repo,
		statsRepo: params.StatsRepo,
		hasher:    params.Hasher,
		tempPwLen: tempPwLen,
	}, nil
}

func (s *service) Register(ctx context.Context, input CreateUserInput) (*models.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	phone := strings.TrimSpace(input.PhoneNumber)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	role := input.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user role")
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.createUser(ctx, tx, fullName, phone, passwordHash, role)
		if err != nil {
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ProvisionedCustomer pairs an auto-created customer account with the
// one-time password it can log in with. The plaintext lives only long enough
// to be delivered to the customer; it is never persisted.
type ProvisionedCustomer struct {
	User         *models.User
	TempPassword string
}

// ProvisionCustomer creates a customer identity with a generated one-time
// password inside the caller's transaction. Used when an invoice names a
// customer that has no account yet.
func (s *service) ProvisionCustomer(ctx context.Context, tx *gorm.DB, fullName string, phoneNumber *string) (*ProvisionedCustomer, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer full name is required")
	}

	tempPassword, err := security.GenerateTempPassword(s.tempPwLen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	passwordHash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash temp password")
	}

	phone := ""
	if phoneNumber != nil {
		phone = strings.TrimSpace(*phoneNumber)
	}
	if phone == "" {
		// phoneless customers get a placeholder so the unique index holds
		phone = "anon-" + uuid.NewString()
	}

	user, err := s.createUser(ctx, tx, fullName, phone, passwordHash, enums.UserRoleCustomer)
	if err != nil {
		return nil, err
	}
	return &ProvisionedCustomer{User: user, TempPassword: tempPassword}, nil
}

func (s *service) createUser(ctx context.Context, tx *gorm.DB, fullName, phone, passwordHash string, role enums.UserRole) (*models.User, error) {
	repo := s.repo.WithTx(tx)

	if _, err := repo.FindByPhone(ctx, phone); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone number")
	}

	username, err := resolveUsername(ctx, repo, fullName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "derive username")
	}

	user := &models.User{
		Username:     username,
		FullName:     fullName,
		PhoneNumber:  phone,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number or username already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if err := s.statsRepo.WithTx(tx).Create(ctx, &models.UserStats{UserID: user.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user stats")
	}

	return user, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asLookupError(err, "user")
	}
	return user, nil
}

func (s *service) FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	phone := strings.TrimSpace(phoneNumber)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, asLookupError(err, "user")
	}
	return user, nil
}

func (s *service) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	user, err := s.repo.FindByUsername(ctx, name)
	if err != nil {
		return nil, asLookupError(err, "user")
	}
	return user, nil
}

func asLookupError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find "+entity)
}
