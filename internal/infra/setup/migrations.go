package setup

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/sairamarava/CodeTogether/internal/domain"
)

// MigrateDB creates or updates the schema for all durable models.
func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.RoomMember{},
		&domain.File{},
		&domain.Message{},
	)
	if err != nil {
		return fmt.Errorf("setup: auto-migrate: %w", err)
	}
	return nil
}
