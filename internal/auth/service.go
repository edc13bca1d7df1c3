package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/internal/identity"
	pkgAuth "github.com/smeazy/invoicing-backend/pkg/auth"
	"github.com/smeazy/invoicing-backend/pkg/auth/session"
	"github.com/smeazy/invoicing-backend/pkg/config"
	"github.com/smeazy/invoicing-backend/pkg/db/models"
	pkgerrors "github.com/smeazy/invoicing-backend/pkg/errors"
)

const invalidCredentialsMessage = "invalid phone number or password"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
}

type userDirectory interface {
	FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
}

type registrar interface {
	Register(ctx context.Context, input identity.CreateUserInput) (*models.User, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type passwordVerifier interface {
	Verify(password, encoded string) (bool, error)
}

type service struct {
	users    userDirectory
	identity registrar
	verifier passwordVerifier
	session  sessionManager
	jwtCfg   config.JWTConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          userDirectory
	Identity       registrar
	Verifier       passwordVerifier
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
}

// NewService constructs a login/registration service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity service is required")
	}
	if params.Verifier == nil {
		return nil, fmt.Errorf("password verifier is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:    params.Users,
		identity: params.Identity,
		verifier: params.Verifier,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := s.verifier.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || user.Disabled {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.issueTokens(ctx, user)
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	user, err := s.identity.Register(ctx, identity.CreateUserInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// issueTokens mints an access token and binds a refresh session to its jti.
func (s *service) issueTokens(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	payload := pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		JTI:      accessID,
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         identity.FromModel(user),
	}, nil
}
