package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/repository"
)

func createCertificadosTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000006_create_certificados",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.CertificadoModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_certificados_fecha ON certificados (fecha_evaluacion)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CertificadoModel{})
		},
	}
}
