package database

import (
	"fmt"

	"gorm.io/gorm"

	"makelaardij/server/internal/models"
)

// RunMigrations creates or updates every table the service uses
func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Property{},
		&models.Contact{},
		&models.User{},
		&models.SavedProperty{},
		&models.SavedSearch{},
		&models.PropertyView{},
		&models.MarketReport{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Speeds up the bounds filter once coordinates are stored
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude)
	`).Error; err != nil {
		return fmt.Errorf("failed to create coordinates index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_property_views_property_viewed
		ON property_views(property_id, viewed_at)
	`).Error; err != nil {
		return fmt.Errorf("failed to create views index: %w", err)
	}

	return nil
}
