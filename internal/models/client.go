package models

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a customer of a company. Uniqueness is scoped to the
// tenant: the same email may exist under two different companies.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CompanyID uint    `gorm:"index;not null;uniqueIndex:idx_clients_email_company" json:"company_id"`
	Company   Company `gorm:"foreignKey:CompanyID" json:"-"`

	Name     string `gorm:"size:255;not null" json:"name"`
	Street   string `gorm:"size:255" json:"street"`
	Number   int    `json:"number"`
	Postal   int    `json:"postal"`
	City     string `gorm:"size:100" json:"city"`
	Province string `gorm:"size:100" json:"province"`
	Phone    string `gorm:"size:50" json:"phone"`
	Email    string `gorm:"size:255;not null;uniqueIndex:idx_clients_email_company" json:"email"`
	Role     string `gorm:"size:100" json:"role"`

	Projects []Project `gorm:"foreignKey:ClientID" json:"projects,omitempty"`
}

// Deleted reports whether the client is soft-deleted.
func (c *Client) Deleted() bool { return c.DeletedAt.Valid }
