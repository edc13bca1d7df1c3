package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/enums"
)

// CreateUserInput captures the data required to provision an identity.
type CreateUserInput struct {
	FullName    string
	PhoneNumber string
	Password    string
	Role        enums.UserRole
}

// UserProfile is the API-facing view of a user. It never carries the
// password hash.
type UserProfile struct {
	ID          uuid.UUID      `json:"id"`
	Username    string         `json:"username"`
	FullName    string         `json:"full_name"`
	PhoneNumber string         `json:"phone_number"`
	Role        enums.UserRole `json:"role"`
	CreatedAt   time.Time      `json:"created_at"`
}

// FromModel converts a stored user into its API profile.
func FromModel(user *models.User) *UserProfile {
	if user == nil {
		return nil
	}
	return &UserProfile{
		ID:          user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	}
}
