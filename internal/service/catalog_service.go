package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/repository"
)

// CatalogService owns the materia prima, maquina, and proceso catalogs that
// feed the certification workflow.
type CatalogService struct {
	materias repository.MateriaPrimaRepository
	maquinas repository.MaquinaRepository
	procesos repository.ProcesoRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewCatalogService(
	materias repository.MateriaPrimaRepository,
	maquinas repository.MaquinaRepository,
	procesos repository.ProcesoRepository,
	logger *zap.Logger,
) (*CatalogService, error) {
	if materias == nil || maquinas == nil || procesos == nil {
		return nil, fmt.Errorf("catalog repositories are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CatalogService{
		materias: materias,
		maquinas: maquinas,
		procesos: procesos,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (s *CatalogService) CreateMateriaPrima(ctx context.Context, materia *domain.MateriaPrima) (*domain.MateriaPrima, error) {
	if materia == nil {
		return nil, fmt.Errorf("%w: materia prima is required", domain.ErrValidation)
	}

	materia.Nombre = strings.TrimSpace(materia.Nombre)
	materia.Descripcion = strings.TrimSpace(materia.Descripcion)
	materia.Unidad = strings.TrimSpace(materia.Unidad)
	if err := materia.Validate(); err != nil {
		return nil, err
	}

	if err := s.materias.Create(ctx, materia); err != nil {
		return nil, err
	}
	return materia, nil
}

func (s *CatalogService) GetMateriaPrima(ctx context.Context, id int64) (*domain.MateriaPrima, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: materia prima id is required", domain.ErrValidation)
	}
	return s.materias.GetByID(ctx, id)
}

func (s *CatalogService) ListMateriasPrimas(ctx context.Context) ([]domain.MateriaPrima, error) {
	return s.materias.List(ctx)
}

func (s *CatalogService) UpdateMateriaPrima(ctx context.Context, materia *domain.MateriaPrima) (*domain.MateriaPrima, error) {
	if materia == nil || materia.ID <= 0 {
		return nil, fmt.Errorf("%w: materia prima id is required", domain.ErrValidation)
	}

	materia.Nombre = strings.TrimSpace(materia.Nombre)
	materia.Descripcion = strings.TrimSpace(materia.Descripcion)
	materia.Unidad = strings.TrimSpace(materia.Unidad)
	if err := materia.Validate(); err != nil {
		return nil, err
	}

	if err := s.materias.Update(ctx, materia); err != nil {
		return nil, err
	}
	return s.materias.GetByID(ctx, materia.ID)
}

func (s *CatalogService) DeleteMateriaPrima(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: materia prima id is required", domain.ErrValidation)
	}
	return s.materias.Delete(ctx, id)
}

func (s *CatalogService) CreateMaquina(ctx context.Context, maquina *domain.Maquina) (*domain.Maquina, error) {
	if maquina == nil {
		return nil, fmt.Errorf("%w: maquina is required", domain.ErrValidation)
	}

	maquina.Nombre = strings.TrimSpace(maquina.Nombre)
	if err := maquina.Validate(); err != nil {
		return nil, err
	}

	if err := s.maquinas.Create(ctx, maquina); err != nil {
		return nil, err
	}
	return maquina, nil
}

func (s *CatalogService) GetMaquina(ctx context.Context, id int64) (*domain.Maquina, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: maquina id is required", domain.ErrValidation)
	}
	return s.maquinas.GetByID(ctx, id)
}

func (s *CatalogService) ListMaquinas(ctx context.Context) ([]domain.Maquina, error) {
	return s.maquinas.List(ctx)
}

func (s *CatalogService) UpdateMaquina(ctx context.Context, maquina *domain.Maquina) (*domain.Maquina, error) {
	if maquina == nil || maquina.ID <= 0 {
		return nil, fmt.Errorf("%w: maquina id is required", domain.ErrValidation)
	}

	maquina.Nombre = strings.TrimSpace(maquina.Nombre)
	if err := maquina.Validate(); err != nil {
		return nil, err
	}

	if err := s.maquinas.Update(ctx, maquina); err != nil {
		return nil, err
	}
	return s.maquinas.GetByID(ctx, maquina.ID)
}

func (s *CatalogService) DeleteMaquina(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: maquina id is required", domain.ErrValidation)
	}
	return s.maquinas.Delete(ctx, id)
}

// CreateProceso validates and persists a proceso definition. The proceso is
// immutable after creation, so authoring mistakes are fixed by deleting and
// recreating it.
func (s *CatalogService) CreateProceso(ctx context.Context, proceso *domain.Proceso) (*domain.Proceso, error) {
	if proceso == nil {
		return nil, fmt.Errorf("%w: proceso is required", domain.ErrValidation)
	}

	proceso.Nombre = strings.TrimSpace(proceso.Nombre)
	proceso.Descripcion = strings.TrimSpace(proceso.Descripcion)
	if err := proceso.Validate(); err != nil {
		return nil, err
	}

	if err := s.procesos.Create(ctx, proceso); err != nil {
		return nil, err
	}
	return proceso, nil
}

func (s *CatalogService) GetProceso(ctx context.Context, id int64) (*domain.Proceso, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: proceso id is required", domain.ErrValidation)
	}
	return s.procesos.GetByID(ctx, id)
}

func (s *CatalogService) ListProcesos(ctx context.Context) ([]domain.Proceso, error) {
	return s.procesos.List(ctx)
}

func (s *CatalogService) DeleteProceso(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: proceso id is required", domain.ErrValidation)
	}
	return s.procesos.Delete(ctx, id)
}
