package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/charlesng35/gatepass/internal/models"
)

// AutoMigrate creates or updates the registrant, credential and validation tables.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	return db.AutoMigrate(
		&models.Registrant{},
		&models.Credential{},
		&models.ValidationRecord{},
	)
}
