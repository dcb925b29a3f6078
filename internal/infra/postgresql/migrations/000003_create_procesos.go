package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/repository"
)

func createProcesosTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_procesos",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(
				&repository.ProcesoModel{},
				&repository.ProcesoPasoModel{},
				&repository.PasoVariableModel{},
			); err != nil {
				return err
			}
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_proceso_pasos_numero ON proceso_pasos (proceso_id, numero)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&repository.PasoVariableModel{},
				&repository.ProcesoPasoModel{},
				&repository.ProcesoModel{},
			)
		},
	}
}
