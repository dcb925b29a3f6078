package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/repository"
)

func createMedicionesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_mediciones",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.MedicionModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.MedicionModel{})
		},
	}
}
