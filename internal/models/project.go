package models

import (
	"time"

	"gorm.io/gorm"
)

// Project groups delivery notes for one client of one company. The client
// must belong to the same company; a project name is unique per company.
type Project struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CompanyID uint    `gorm:"index;not null;uniqueIndex:idx_projects_name_company" json:"company_id"`
	Company   Company `gorm:"foreignKey:CompanyID" json:"-"`

	ClientID uint   `gorm:"index;not null" json:"client_id"`
	Client   Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	// UserID records who created the project.
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name        string    `gorm:"size:255;not null;uniqueIndex:idx_projects_name_company" json:"name"`
	Description string    `gorm:"size:1000" json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`

	DeliveryNotes []DeliveryNote `gorm:"foreignKey:ProjectID" json:"delivery_notes,omitempty"`
}

// Deleted reports whether the project is soft-deleted.
func (p *Project) Deleted() bool { return p.DeletedAt.Valid }
