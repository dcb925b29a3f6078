package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/repository"
)

func createMaquinasTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_maquinas",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.MaquinaModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.MaquinaModel{})
		},
	}
}
