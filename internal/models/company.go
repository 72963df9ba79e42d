package models

import (
	"time"

	"gorm.io/gorm"
)

// Company is the tenant of the system. Every client, project and delivery
// note is scoped to exactly one company. A company is uniquely identified
// by its CIF (tax id); users reference it via their CompanyID, and whoever
// points at it can administer it.
type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name     string `gorm:"size:255;not null" json:"name"`
	CIF      string `gorm:"uniqueIndex;size:20;not null" json:"cif"`
	Street   string `gorm:"size:255" json:"street"`
	Number   int    `json:"number"`
	Postal   int    `json:"postal"`
	City     string `gorm:"size:100" json:"city"`
	Province string `gorm:"size:100" json:"province"`

	// LogoURL points at an uploaded logo in object storage.
	LogoURL string `gorm:"size:512" json:"logo,omitempty"`

	Clients []Client `gorm:"foreignKey:CompanyID" json:"clients,omitempty"`
}

// Deleted reports whether the company is soft-deleted.
func (c *Company) Deleted() bool { return c.DeletedAt.Valid }
