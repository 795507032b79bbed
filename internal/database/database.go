package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/truskill-essay-api/internal/models"
)

// Connect opens the essay database using the configured driver ("postgres" or "sqlite").
func Connect(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn must not be empty", driver)
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	return db, nil
}

// Migrate creates or updates the tables the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Student{}, &models.StudentProfile{}, &models.Essay{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
