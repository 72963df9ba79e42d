package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user account can hold. Roles are a closed set; the only dynamic
// transition is the guest auto-verification at login.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

// User represents an authenticated user in the system.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name     string `gorm:"size:255" json:"name,omitempty"`
	Surnames string `gorm:"size:255" json:"surnames,omitempty"`
	NIF      string `gorm:"size:20" json:"nif,omitempty"`
	Password string `gorm:"size:255" json:"-"` // Hashed, never exposed in JSON

	Role       string `gorm:"size:20;not null;default:user" json:"role"`
	IsVerified bool   `gorm:"not null;default:false" json:"is_verified"`

	// Code holds the pending 6-digit verification or password-reset code.
	// Nil when no code is outstanding.
	Code             *string `gorm:"size:6" json:"-"`
	RecoveryAttempts int     `gorm:"not null;default:0" json:"-"`

	// CompanyID links the user to a tenant. Nil means the user has not set
	// up or joined a company yet and is rejected from company-scoped routes.
	CompanyID *uint    `gorm:"index" json:"company_id,omitempty"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// Deleted reports whether the user is soft-deleted.
func (u *User) Deleted() bool { return u.DeletedAt.Valid }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
