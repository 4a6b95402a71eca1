package repository

import (
	"gorm.io/gorm"
)

// terminalScope filters by POS terminal. An empty id leaves the query unfiltered.
func terminalScope(terminalID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if terminalID == "" {
			return db
		}
		return db.Where("terminal_id = ?", terminalID)
	}
}
