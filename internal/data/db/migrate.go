package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/kaical-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureEventIndexes(db)
}

// EnsureEventIndexes adds the partial unique index gorm tags cannot express.
// SQLite supports partial indexes too, so the statement is shared.
func EnsureEventIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_event_user_google_id
		ON event(user_id, google_event_id)
		WHERE deleted_at IS NULL AND google_event_id <> '';
	`).Error; err != nil {
		return fmt.Errorf("create idx_event_user_google_id: %w", err)
	}
	return nil
}
