package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/domain"
)

type ProcesoRepository interface {
	Create(ctx context.Context, proceso *domain.Proceso) error
	GetByID(ctx context.Context, id int64) (*domain.Proceso, error)
	List(ctx context.Context) ([]domain.Proceso, error)
	Delete(ctx context.Context, id int64) error
}

type GormProcesoRepo struct {
	db *gorm.DB
}

func NewGormProcesoRepo(db *gorm.DB) *GormProcesoRepo {
	return &GormProcesoRepo{db: db}
}

// Create persists a proceso together with its pasos and variable ranges in a
// single transaction.
func (r *GormProcesoRepo) Create(ctx context.Context, proceso *domain.Proceso) error {
	model := procesoModelFromDomain(proceso)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if proceso != nil {
		*proceso = *procesoModelToDomain(model)
	}
	return nil
}

func (r *GormProcesoRepo) GetByID(ctx context.Context, id int64) (*domain.Proceso, error) {
	var model ProcesoModel
	err := r.db.WithContext(ctx).
		Preload("Pasos.Variables").
		Preload("Pasos", func(db *gorm.DB) *gorm.DB {
			return db.Order("proceso_pasos.numero ASC")
		}).
		First(&model, "id_proceso = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return procesoModelToDomain(&model), nil
}

func (r *GormProcesoRepo) List(ctx context.Context) ([]domain.Proceso, error) {
	var models []ProcesoModel
	err := r.db.WithContext(ctx).
		Preload("Pasos.Variables").
		Preload("Pasos", func(db *gorm.DB) *gorm.DB {
			return db.Order("proceso_pasos.numero ASC")
		}).
		Order("nombre ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	procesos := make([]domain.Proceso, 0, len(models))
	for i := range models {
		procesos = append(procesos, *procesoModelToDomain(&models[i]))
	}
	return procesos, nil
}

func (r *GormProcesoRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pasoIDs []int64
		if err := tx.Model(&ProcesoPasoModel{}).
			Where("proceso_id = ?", id).
			Pluck("id", &pasoIDs).Error; err != nil {
			return err
		}

		if len(pasoIDs) > 0 {
			if err := tx.Delete(&PasoVariableModel{}, "paso_id IN ?", pasoIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&ProcesoPasoModel{}, "proceso_id = ?", id).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&ProcesoModel{}, "id_proceso = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
