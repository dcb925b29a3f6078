package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/domain"
)

type MaquinaRepository interface {
	Create(ctx context.Context, maquina *domain.Maquina) error
	GetByID(ctx context.Context, id int64) (*domain.Maquina, error)
	List(ctx context.Context) ([]domain.Maquina, error)
	Update(ctx context.Context, maquina *domain.Maquina) error
	Delete(ctx context.Context, id int64) error
}

type GormMaquinaRepo struct {
	db *gorm.DB
}

func NewGormMaquinaRepo(db *gorm.DB) *GormMaquinaRepo {
	return &GormMaquinaRepo{db: db}
}

func (r *GormMaquinaRepo) Create(ctx context.Context, maquina *domain.Maquina) error {
	model := maquinaModelFromDomain(maquina)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if maquina != nil {
		*maquina = *maquinaModelToDomain(model)
	}
	return nil
}

func (r *GormMaquinaRepo) GetByID(ctx context.Context, id int64) (*domain.Maquina, error) {
	var model MaquinaModel
	err := r.db.WithContext(ctx).First(&model, "id_maquina = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return maquinaModelToDomain(&model), nil
}

func (r *GormMaquinaRepo) List(ctx context.Context) ([]domain.Maquina, error) {
	var models []MaquinaModel
	if err := r.db.WithContext(ctx).Order("nombre ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	maquinas := make([]domain.Maquina, 0, len(models))
	for i := range models {
		maquinas = append(maquinas, *maquinaModelToDomain(&models[i]))
	}
	return maquinas, nil
}

func (r *GormMaquinaRepo) Update(ctx context.Context, maquina *domain.Maquina) error {
	model := maquinaModelFromDomain(maquina)
	result := r.db.WithContext(ctx).
		Model(&MaquinaModel{}).
		Where("id_maquina = ?", model.ID).
		Updates(map[string]any{
			"nombre": model.Nombre,
			"imagen": model.Imagen,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormMaquinaRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&MaquinaModel{}, "id_maquina = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
