package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/repository"
)

func createLotesTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_lotes",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(
				&repository.LoteModel{},
				&repository.LoteMateriaModel{},
			); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_lotes_estado ON lotes (estado)`,
				`CREATE INDEX IF NOT EXISTS idx_lotes_proceso ON lotes (id_proceso) WHERE id_proceso IS NOT NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&repository.LoteMateriaModel{},
				&repository.LoteModel{},
			)
		},
	}
}
