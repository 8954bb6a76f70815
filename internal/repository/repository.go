package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrStaleRecord is returned when a versioned update lost the race against another writer.
var ErrStaleRecord = errors.New("repository: record was modified concurrently")

// pick prefers the caller's transaction over the repository's own handle.
func pick(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
