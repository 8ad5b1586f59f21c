package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/fridge2fork/backend/internal/models"
)

// RunMigrations creates or updates the history tables
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.GenerationRecord{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", db.Dialector.Name(), err)
	}
	return nil
}

// RollbackMigrations drops the history tables
func RollbackMigrations(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.GenerationRecord{}); err != nil {
		return fmt.Errorf("failed to drop generations: %w", err)
	}
	return nil
}
