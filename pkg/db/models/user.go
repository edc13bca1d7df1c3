package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smeazy/invoicing-backend/pkg/enums"
)

// User is the canonical identity record. Businesses and customers share this
// table; the role only records how the account was provisioned.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string         `gorm:"column:username;type:text;not null;uniqueIndex"`
	FullName     string         `gorm:"column:full_name;not null"`
	PhoneNumber  string         `gorm:"column:phone_number;type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	Disabled     bool           `gorm:"column:disabled;not null;default:false"`
	Stats        *UserStats     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
