package store

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotSoftDeleted is returned by Restore when the record is not currently
// soft-deleted (either active or already hard-deleted).
var ErrNotSoftDeleted = errors.New("record is not soft-deleted")

// SoftDeletable is implemented by every tenant entity that participates in
// the archive/restore/purge lifecycle.
type SoftDeletable interface {
	Deleted() bool
}

// SoftDelete marks the record deleted. gorm.DeletedAt turns Delete into an
// update of the deleted_at timestamp; the record disappears from Active
// queries but stays in the table.
func SoftDelete(db *gorm.DB, entity any) error {
	return db.Delete(entity).Error
}

// Restore clears the soft-delete flag. It fails with ErrNotSoftDeleted when
// the entity is not currently soft-deleted, so callers must have loaded it
// through an IncludeDeleted or DeletedOnly query first.
func Restore(db *gorm.DB, entity SoftDeletable) error {
	if !entity.Deleted() {
		return ErrNotSoftDeleted
	}
	return db.Unscoped().Model(entity).Update("deleted_at", nil).Error
}

// HardDelete physically removes the record. Irreversible. Related rows are
// not cascaded: dependents keep now-dangling references and callers must
// tolerate or clean them up explicitly.
func HardDelete(db *gorm.DB, entity any) error {
	return db.Unscoped().Delete(entity).Error
}
