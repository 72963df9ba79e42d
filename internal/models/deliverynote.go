package models

import (
	"time"

	"gorm.io/gorm"
)

// Delivery note formats. An "hours" note bills worked hours and binds the
// acting user as responsible; a "material" note bills a named material and
// quantity.
const (
	FormatHours    = "hours"
	FormatMaterial = "material"
)

// DeliveryNote is a work record attached to a project. Once signed it can
// no longer be deleted, soft or hard; there is no unsign operation.
type DeliveryNote struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CompanyID uint    `gorm:"index;not null" json:"company_id"`
	Company   Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	ProjectID uint    `gorm:"index;not null" json:"project_id"`
	Project   Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	ClientID uint   `gorm:"index;not null" json:"client_id"`
	Client   Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	// UserID is the responsible worker; set only for the hours format.
	UserID *uint `gorm:"index" json:"user_id,omitempty"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// CreatedByID records the account that registered the note.
	CreatedByID uint `gorm:"index;not null" json:"created_by"`

	Format      string   `gorm:"size:20;not null" json:"format"`
	Hours       *float64 `json:"hours,omitempty"`
	Material    *string  `gorm:"size:255" json:"material,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Description string   `gorm:"size:1000" json:"description,omitempty"`

	// Sign is the URL of the uploaded signature image; nil while unsigned.
	Sign    *string `gorm:"size:512" json:"sign,omitempty"`
	Pending bool    `gorm:"not null;default:true" json:"pending"`
	// PDF is the URL of the generated document; nil until first render.
	PDF *string `gorm:"size:512" json:"pdf,omitempty"`
}

// Deleted reports whether the note is soft-deleted.
func (n *DeliveryNote) Deleted() bool { return n.DeletedAt.Valid }

// Signed reports whether a signature has been attached.
func (n *DeliveryNote) Signed() bool { return n.Sign != nil && *n.Sign != "" }
