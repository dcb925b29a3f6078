package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/certilote/certify-engine/internal/domain"
)

// LoteModel is the persistence model for the lotes table.
type LoteModel struct {
	ID            int64              `gorm:"column:id_lote;primaryKey;autoIncrement"`
	Nombre        string             `gorm:"type:varchar(255);not null"`
	FechaCreacion time.Time          `gorm:"type:timestamptz;not null"`
	Estado        domain.Estado      `gorm:"type:varchar(20);not null"`
	ProcesoID     *int64             `gorm:"column:id_proceso"`
	Materias      []LoteMateriaModel `gorm:"foreignKey:LoteID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (LoteModel) TableName() string {
	return "lotes"
}

// LoteMateriaModel links a lote to a consumed materia prima.
type LoteMateriaModel struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	LoteID         int64           `gorm:"not null;index"`
	MateriaPrimaID int64           `gorm:"not null"`
	Cantidad       decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	CreatedAt      time.Time
}

func (LoteMateriaModel) TableName() string {
	return "lote_materias"
}

// MateriaPrimaModel is the persistence model for materias_primas.
type MateriaPrimaModel struct {
	ID          int64           `gorm:"column:id_materia_prima;primaryKey;autoIncrement"`
	Nombre      string          `gorm:"type:varchar(255);not null"`
	Descripcion string          `gorm:"type:text"`
	Cantidad    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Unidad      string          `gorm:"type:varchar(32)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (MateriaPrimaModel) TableName() string {
	return "materias_primas"
}

// MaquinaModel is the persistence model for the maquinas catalog.
type MaquinaModel struct {
	ID        int64  `gorm:"column:id_maquina;primaryKey;autoIncrement"`
	Nombre    string `gorm:"type:varchar(255);not null"`
	Imagen    string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MaquinaModel) TableName() string {
	return "maquinas"
}

// ProcesoModel is the persistence model for procesos.
type ProcesoModel struct {
	ID          int64              `gorm:"column:id_proceso;primaryKey;autoIncrement"`
	Nombre      string             `gorm:"type:varchar(255);not null"`
	Descripcion string             `gorm:"type:text"`
	Pasos       []ProcesoPasoModel `gorm:"foreignKey:ProcesoID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProcesoModel) TableName() string {
	return "procesos"
}

// ProcesoPasoModel is one machine step row of a proceso.
type ProcesoPasoModel struct {
	ID        int64               `gorm:"primaryKey;autoIncrement"`
	ProcesoID int64               `gorm:"not null;index"`
	Numero    int                 `gorm:"not null"`
	Nombre    string              `gorm:"type:varchar(255);not null"`
	Imagen    string              `gorm:"type:text"`
	Variables []PasoVariableModel `gorm:"foreignKey:PasoID"`
	CreatedAt time.Time
}

func (ProcesoPasoModel) TableName() string {
	return "proceso_pasos"
}

// PasoVariableModel declares one variable range of a paso.
type PasoVariableModel struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	PasoID    int64           `gorm:"not null;index"`
	Nombre    string          `gorm:"type:varchar(255);not null"`
	Min       decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Max       decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	CreatedAt time.Time
}

func (PasoVariableModel) TableName() string {
	return "paso_variables"
}

// MedicionModel is the persistence model for mediciones. The (lote_id, numero)
// pair carries a unique index; a row is never updated once written.
type MedicionModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	LoteID         int64  `gorm:"column:lote_id;not null;uniqueIndex:idx_mediciones_lote_numero"`
	Numero         int    `gorm:"not null;uniqueIndex:idx_mediciones_lote_numero"`
	Valores        string `gorm:"type:jsonb;not null"`
	CumpleEstandar bool   `gorm:"not null"`
	CreatedAt      time.Time
}

func (MedicionModel) TableName() string {
	return "mediciones"
}

// CertificadoModel is the persistence model for certificados. lote_id is
// unique so at most one certificate exists per lote.
type CertificadoModel struct {
	ID              string           `gorm:"type:uuid;primaryKey"`
	LoteID          int64            `gorm:"column:lote_id;not null;uniqueIndex"`
	Resultado       domain.Resultado `gorm:"type:varchar(20);not null"`
	Motivo          string           `gorm:"type:text;not null"`
	FechaEvaluacion time.Time        `gorm:"type:timestamptz;not null"`
	Pasos           string           `gorm:"type:jsonb;not null"`
	CreatedAt       time.Time
}

func (CertificadoModel) TableName() string {
	return "certificados"
}

func loteModelFromDomain(l *domain.Lote) *LoteModel {
	if l == nil {
		return nil
	}

	materias := make([]LoteMateriaModel, 0, len(l.Materias))
	for _, usage := range l.Materias {
		materias = append(materias, LoteMateriaModel{
			LoteID:         l.ID,
			MateriaPrimaID: usage.MateriaPrimaID,
			Cantidad:       usage.Cantidad,
		})
	}

	return &LoteModel{
		ID:            l.ID,
		Nombre:        l.Nombre,
		FechaCreacion: l.FechaCreacion,
		Estado:        l.Estado,
		ProcesoID:     l.ProcesoID,
		Materias:      materias,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// loteModelToDomain maps a lote row to the domain. nombres resolves materia
// prima ids to display names and may be nil.
func loteModelToDomain(m *LoteModel, nombres map[int64]string) *domain.Lote {
	if m == nil {
		return nil
	}

	materias := make([]domain.MateriaUsage, 0, len(m.Materias))
	for _, usage := range m.Materias {
		materias = append(materias, domain.MateriaUsage{
			MateriaPrimaID: usage.MateriaPrimaID,
			Nombre:         nombres[usage.MateriaPrimaID],
			Cantidad:       usage.Cantidad,
		})
	}

	return &domain.Lote{
		ID:            m.ID,
		Nombre:        m.Nombre,
		FechaCreacion: m.FechaCreacion,
		Estado:        m.Estado,
		ProcesoID:     m.ProcesoID,
		Materias:      materias,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func materiaModelFromDomain(m *domain.MateriaPrima) *MateriaPrimaModel {
	if m == nil {
		return nil
	}
	return &MateriaPrimaModel{
		ID:          m.ID,
		Nombre:      m.Nombre,
		Descripcion: m.Descripcion,
		Cantidad:    m.Cantidad,
		Unidad:      m.Unidad,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func materiaModelToDomain(m *MateriaPrimaModel) *domain.MateriaPrima {
	if m == nil {
		return nil
	}
	return &domain.MateriaPrima{
		ID:          m.ID,
		Nombre:      m.Nombre,
		Descripcion: m.Descripcion,
		Cantidad:    m.Cantidad,
		Unidad:      m.Unidad,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func maquinaModelFromDomain(m *domain.Maquina) *MaquinaModel {
	if m == nil {
		return nil
	}
	return &MaquinaModel{
		ID:        m.ID,
		Nombre:    m.Nombre,
		Imagen:    m.Imagen,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func maquinaModelToDomain(m *MaquinaModel) *domain.Maquina {
	if m == nil {
		return nil
	}
	return &domain.Maquina{
		ID:        m.ID,
		Nombre:    m.Nombre,
		Imagen:    m.Imagen,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func procesoModelFromDomain(p *domain.Proceso) *ProcesoModel {
	if p == nil {
		return nil
	}

	pasos := make([]ProcesoPasoModel, 0, len(p.Pasos))
	for _, paso := range p.Pasos {
		variables := make([]PasoVariableModel, 0, len(paso.Variables))
		for _, variable := range paso.Variables {
			variables = append(variables, PasoVariableModel{
				Nombre: variable.Nombre,
				Min:    variable.Min,
				Max:    variable.Max,
			})
		}
		pasos = append(pasos, ProcesoPasoModel{
			ProcesoID: p.ID,
			Numero:    paso.Numero,
			Nombre:    paso.Nombre,
			Imagen:    paso.Imagen,
			Variables: variables,
		})
	}

	return &ProcesoModel{
		ID:          p.ID,
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Pasos:       pasos,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func procesoModelToDomain(m *ProcesoModel) *domain.Proceso {
	if m == nil {
		return nil
	}

	pasos := make([]domain.MaquinaPaso, 0, len(m.Pasos))
	for _, paso := range m.Pasos {
		variables := make([]domain.VariableDef, 0, len(paso.Variables))
		for _, variable := range paso.Variables {
			variables = append(variables, domain.VariableDef{
				Nombre: variable.Nombre,
				Min:    variable.Min,
				Max:    variable.Max,
			})
		}
		pasos = append(pasos, domain.MaquinaPaso{
			Numero:    paso.Numero,
			Nombre:    paso.Nombre,
			Imagen:    paso.Imagen,
			Variables: variables,
		})
	}

	proceso := &domain.Proceso{
		ID:          m.ID,
		Nombre:      m.Nombre,
		Descripcion: m.Descripcion,
		Pasos:       pasos,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	proceso.SortPasos()
	return proceso
}

func medicionModelFromDomain(m *domain.Medicion) (*MedicionModel, error) {
	if m == nil {
		return nil, nil
	}

	valores, err := json.Marshal(m.Valores)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal medicion valores: %w", err)
	}

	return &MedicionModel{
		ID:             m.ID,
		LoteID:         m.LoteID,
		Numero:         m.Numero,
		Valores:        string(valores),
		CumpleEstandar: m.CumpleEstandar,
		CreatedAt:      m.CreatedAt,
	}, nil
}

func medicionModelToDomain(m *MedicionModel) (*domain.Medicion, error) {
	if m == nil {
		return nil, nil
	}

	valores := make(map[string]string)
	if err := json.Unmarshal([]byte(m.Valores), &valores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal medicion valores: %w", err)
	}

	return &domain.Medicion{
		ID:             m.ID,
		LoteID:         m.LoteID,
		Numero:         m.Numero,
		Valores:        valores,
		CumpleEstandar: m.CumpleEstandar,
		CreatedAt:      m.CreatedAt,
	}, nil
}

func certificadoModelFromDomain(c *domain.Certificado) (*CertificadoModel, error) {
	if c == nil {
		return nil, nil
	}

	pasos, err := json.Marshal(c.Pasos)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal certificado pasos: %w", err)
	}

	return &CertificadoModel{
		ID:              c.ID,
		LoteID:          c.LoteID,
		Resultado:       c.Resultado,
		Motivo:          c.Motivo,
		FechaEvaluacion: c.FechaEvaluacion,
		Pasos:           string(pasos),
		CreatedAt:       c.CreatedAt,
	}, nil
}

func certificadoModelToDomain(m *CertificadoModel) (*domain.Certificado, error) {
	if m == nil {
		return nil, nil
	}

	var pasos []domain.PasoResumen
	if err := json.Unmarshal([]byte(m.Pasos), &pasos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certificado pasos: %w", err)
	}

	return &domain.Certificado{
		ID:              m.ID,
		LoteID:          m.LoteID,
		Resultado:       m.Resultado,
		Motivo:          m.Motivo,
		FechaEvaluacion: m.FechaEvaluacion,
		Pasos:           pasos,
		CreatedAt:       m.CreatedAt,
	}, nil
}
