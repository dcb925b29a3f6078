package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/certilote/certify-engine/internal/domain"
)

type LoteListParams struct {
	Estado   *domain.Estado
	Page     int
	PageSize int
}

type LoteRepository interface {
	Create(ctx context.Context, lote *domain.Lote) error
	GetByID(ctx context.Context, id int64) (*domain.Lote, error)
	List(ctx context.Context, params LoteListParams) ([]domain.Lote, int64, error)
	AssignProceso(ctx context.Context, loteID, procesoID int64) error
	UpdateEstado(ctx context.Context, loteID int64, estado domain.Estado) error
	ListFinalizadosSinCertificado(ctx context.Context, limit int) ([]domain.Lote, error)
}

type GormLoteRepo struct {
	db *gorm.DB
}

func NewGormLoteRepo(db *gorm.DB) *GormLoteRepo {
	return &GormLoteRepo{db: db}
}

func (r *GormLoteRepo) Create(ctx context.Context, lote *domain.Lote) error {
	model := loteModelFromDomain(lote)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if lote != nil {
		nombres, err := r.materiaNombres(ctx, model.Materias)
		if err != nil {
			return err
		}
		*lote = *loteModelToDomain(model, nombres)
	}
	return nil
}

func (r *GormLoteRepo) GetByID(ctx context.Context, id int64) (*domain.Lote, error) {
	var model LoteModel
	err := r.db.WithContext(ctx).
		Preload("Materias").
		First(&model, "id_lote = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	nombres, err := r.materiaNombres(ctx, model.Materias)
	if err != nil {
		return nil, err
	}
	return loteModelToDomain(&model, nombres), nil
}

func (r *GormLoteRepo) List(ctx context.Context, params LoteListParams) ([]domain.Lote, int64, error) {
	query := r.db.WithContext(ctx).Model(&LoteModel{})

	if params.Estado != nil {
		query = query.Where("estado = ?", *params.Estado)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []LoteModel
	err := query.
		Preload("Materias").
		Order("fecha_creacion DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	var usages []LoteMateriaModel
	for i := range models {
		usages = append(usages, models[i].Materias...)
	}
	nombres, err := r.materiaNombres(ctx, usages)
	if err != nil {
		return nil, 0, err
	}

	lotes := make([]domain.Lote, 0, len(models))
	for i := range models {
		lotes = append(lotes, *loteModelToDomain(&models[i], nombres))
	}

	return lotes, total, nil
}

func (r *GormLoteRepo) AssignProceso(ctx context.Context, loteID, procesoID int64) error {
	result := r.db.WithContext(ctx).
		Model(&LoteModel{}).
		Where("id_lote = ? AND estado = ?", loteID, domain.EstadoPendiente).
		Update("id_proceso", procesoID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.assignProcesoFailure(ctx, loteID)
	}
	return nil
}

// assignProcesoFailure distinguishes a missing lote from one already in a
// final estado.
func (r *GormLoteRepo) assignProcesoFailure(ctx context.Context, loteID int64) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&LoteModel{}).
		Where("id_lote = ?", loteID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func (r *GormLoteRepo) UpdateEstado(ctx context.Context, loteID int64, estado domain.Estado) error {
	result := r.db.WithContext(ctx).
		Model(&LoteModel{}).
		Where("id_lote = ?", loteID).
		Update("estado", estado)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListFinalizadosSinCertificado finds lotes that reached a final estado but
// have no persisted certificado yet, so the scanner can requeue them.
func (r *GormLoteRepo) ListFinalizadosSinCertificado(ctx context.Context, limit int) ([]domain.Lote, error) {
	var models []LoteModel
	err := r.db.WithContext(ctx).
		Where("estado IN ?", []domain.Estado{domain.EstadoCertificado, domain.EstadoRechazado}).
		Where("id_lote NOT IN (?)", r.db.Model(&CertificadoModel{}).Select("lote_id")).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	lotes := make([]domain.Lote, 0, len(models))
	for i := range models {
		lotes = append(lotes, *loteModelToDomain(&models[i], nil))
	}
	return lotes, nil
}

func (r *GormLoteRepo) materiaNombres(ctx context.Context, usages []LoteMateriaModel) (map[int64]string, error) {
	if len(usages) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(usages))
	seen := make(map[int64]struct{}, len(usages))
	for _, usage := range usages {
		if _, ok := seen[usage.MateriaPrimaID]; ok {
			continue
		}
		seen[usage.MateriaPrimaID] = struct{}{}
		ids = append(ids, usage.MateriaPrimaID)
	}

	var materias []MateriaPrimaModel
	if err := r.db.WithContext(ctx).
		Where("id_materia_prima IN ?", ids).
		Find(&materias).Error; err != nil {
		return nil, err
	}

	nombres := make(map[int64]string, len(materias))
	for _, materia := range materias {
		nombres[materia.ID] = materia.Nombre
	}
	return nombres, nil
}
