package models

import "time"

// StorageItem records a file pushed to the uploader (company logos,
// signature images, generated PDFs) so uploads remain traceable to the
// account that produced them.
type StorageItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint   `gorm:"index;not null" json:"user_id"`
	Filename string `gorm:"size:255;not null" json:"filename"`
	URL      string `gorm:"size:512;not null" json:"url"`
}
