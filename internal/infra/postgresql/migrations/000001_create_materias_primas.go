package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/repository"
)

func createMateriasPrimasTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_materias_primas",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.MateriaPrimaModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.MateriaPrimaModel{})
		},
	}
}
