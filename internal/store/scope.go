// Package store threads soft-delete awareness through every query instead
// of relying on hidden global scopes. Repository calls pick one of three
// query modes; the default sees active records only.
package store

import "gorm.io/gorm"

// QueryMode selects which records a query can see with respect to the
// soft-delete flag.
type QueryMode int

const (
	// Active excludes soft-deleted records. This is the default.
	Active QueryMode = iota
	// IncludeDeleted sees both active and soft-deleted records. Used by
	// restore paths and the session middleware's existence check.
	IncludeDeleted
	// DeletedOnly sees soft-deleted records exclusively. Used by the
	// archive-listing endpoints.
	DeletedOnly
)

// Apply returns tx restricted to the records the mode can see.
func (m QueryMode) Apply(tx *gorm.DB) *gorm.DB {
	switch m {
	case IncludeDeleted:
		return tx.Unscoped()
	case DeletedOnly:
		return tx.Unscoped().Where("deleted_at IS NOT NULL")
	default:
		return tx
	}
}
