package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/domain"
)

type MateriaPrimaRepository interface {
	Create(ctx context.Context, materia *domain.MateriaPrima) error
	GetByID(ctx context.Context, id int64) (*domain.MateriaPrima, error)
	List(ctx context.Context) ([]domain.MateriaPrima, error)
	Update(ctx context.Context, materia *domain.MateriaPrima) error
	Delete(ctx context.Context, id int64) error
}

type GormMateriaPrimaRepo struct {
	db *gorm.DB
}

func NewGormMateriaPrimaRepo(db *gorm.DB) *GormMateriaPrimaRepo {
	return &GormMateriaPrimaRepo{db: db}
}

func (r *GormMateriaPrimaRepo) Create(ctx context.Context, materia *domain.MateriaPrima) error {
	model := materiaModelFromDomain(materia)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if materia != nil {
		*materia = *materiaModelToDomain(model)
	}
	return nil
}

func (r *GormMateriaPrimaRepo) GetByID(ctx context.Context, id int64) (*domain.MateriaPrima, error) {
	var model MateriaPrimaModel
	err := r.db.WithContext(ctx).First(&model, "id_materia_prima = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return materiaModelToDomain(&model), nil
}

func (r *GormMateriaPrimaRepo) List(ctx context.Context) ([]domain.MateriaPrima, error) {
	var models []MateriaPrimaModel
	if err := r.db.WithContext(ctx).Order("nombre ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	materias := make([]domain.MateriaPrima, 0, len(models))
	for i := range models {
		materias = append(materias, *materiaModelToDomain(&models[i]))
	}
	return materias, nil
}

func (r *GormMateriaPrimaRepo) Update(ctx context.Context, materia *domain.MateriaPrima) error {
	model := materiaModelFromDomain(materia)
	result := r.db.WithContext(ctx).
		Model(&MateriaPrimaModel{}).
		Where("id_materia_prima = ?", model.ID).
		Updates(map[string]any{
			"nombre":      model.Nombre,
			"descripcion": model.Descripcion,
			"cantidad":    model.Cantidad,
			"unidad":      model.Unidad,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormMateriaPrimaRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&MateriaPrimaModel{}, "id_materia_prima = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
