package store

import "gorm.io/gorm"

// First fetches the first record matching query/args under the given mode.
// Returns gorm.ErrRecordNotFound when nothing matches.
func First[T any](db *gorm.DB, mode QueryMode, query any, args ...any) (*T, error) {
	var out T
	if err := mode.Apply(db).Where(query, args...).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Find fetches all records matching query/args under the given mode.
func Find[T any](db *gorm.DB, mode QueryMode, query any, args ...any) ([]T, error) {
	var out []T
	tx := mode.Apply(db)
	if query != nil {
		tx = tx.Where(query, args...)
	}
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether at least one record of T matches query/args under
// the given mode. Uniqueness checks run through here before a write; the
// database unique index remains the true arbiter under concurrency.
func Exists[T any](db *gorm.DB, mode QueryMode, query any, args ...any) (bool, error) {
	var count int64
	var model T
	if err := mode.Apply(db).Model(&model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
