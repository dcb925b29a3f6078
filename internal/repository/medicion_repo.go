package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/domain"
)

type MedicionRepository interface {
	Create(ctx context.Context, medicion *domain.Medicion) error
	GetByLoteAndNumero(ctx context.Context, loteID int64, numero int) (*domain.Medicion, error)
	ListByLote(ctx context.Context, loteID int64) ([]domain.Medicion, error)
}

type GormMedicionRepo struct {
	db *gorm.DB
}

func NewGormMedicionRepo(db *gorm.DB) *GormMedicionRepo {
	return &GormMedicionRepo{db: db}
}

// Create inserts a measurement record. A second insert for the same
// (lote, numero) pair trips the unique index and surfaces as ErrConflict,
// which keeps records immutable under concurrent submissions.
func (r *GormMedicionRepo) Create(ctx context.Context, medicion *domain.Medicion) error {
	model, err := medicionModelFromDomain(medicion)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	if medicion != nil {
		mapped, err := medicionModelToDomain(model)
		if err != nil {
			return err
		}
		*medicion = *mapped
	}
	return nil
}

func (r *GormMedicionRepo) GetByLoteAndNumero(ctx context.Context, loteID int64, numero int) (*domain.Medicion, error) {
	var model MedicionModel
	err := r.db.WithContext(ctx).
		Where("lote_id = ? AND numero = ?", loteID, numero).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return medicionModelToDomain(&model)
}

func (r *GormMedicionRepo) ListByLote(ctx context.Context, loteID int64) ([]domain.Medicion, error) {
	var models []MedicionModel
	err := r.db.WithContext(ctx).
		Where("lote_id = ?", loteID).
		Order("numero ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	mediciones := make([]domain.Medicion, 0, len(models))
	for i := range models {
		mapped, err := medicionModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		mediciones = append(mediciones, *mapped)
	}
	return mediciones, nil
}
