package auth

import (
	"github.com/smeazy/invoicing-backend/internal/identity"
	"github.com/smeazy/invoicing-backend/pkg/enums"
)

// LoginRequest captures the credentials sent to the login endpoint. Accounts
// are keyed by phone number.
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// RegisterRequest contains the payload for self-service signup. The role
// decides whether the account can issue invoices (business) or only receive
// them (customer).
type RegisterRequest struct {
	FullName    string         `json:"full_name" validate:"required"`
	PhoneNumber string         `json:"phone_number" validate:"required"`
	Password    string         `json:"password" validate:"required,min=8"`
	Role        enums.UserRole `json:"role" validate:"required"`
}

// AuthResponse contains the token pair and user profile produced by a
// successful login or registration.
type AuthResponse struct {
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	User         *identity.UserProfile `json:"user"`
}
