package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estado represents the lifecycle state of a lote.
type Estado string

const (
	EstadoPendiente   Estado = "Pendiente"
	EstadoCertificado Estado = "Certificado"
	EstadoRechazado   Estado = "Rechazado"
)

func (e Estado) String() string { return string(e) }

func (e Estado) IsValid() bool {
	switch e {
	case EstadoPendiente, EstadoCertificado, EstadoRechazado:
		return true
	}
	return false
}

// IsFinal reports whether the estado is terminal for the workflow.
func (e Estado) IsFinal() bool {
	return e == EstadoCertificado || e == EstadoRechazado
}

// estadoAliases maps legacy spellings seen in older clients onto the
// canonical vocabulary ("Aprobado" and "Certificado" meant the same thing).
var estadoAliases = map[string]Estado{
	"pendiente":    EstadoPendiente,
	"certificado":  EstadoCertificado,
	"certificada":  EstadoCertificado,
	"aprobado":     EstadoCertificado,
	"aprobada":     EstadoCertificado,
	"rechazado":    EstadoRechazado,
	"rechazada":    EstadoRechazado,
	"no aprobado":  EstadoRechazado,
	"no certifica": EstadoRechazado,
}

func ParseEstadoFromString(s string) (Estado, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if estado, ok := estadoAliases[normalized]; ok {
		return estado, nil
	}
	return "", fmt.Errorf("%w: invalid estado %q", ErrValidation, s)
}

// MateriaUsage records a raw material consumed by a lote.
type MateriaUsage struct {
	MateriaPrimaID int64
	Nombre         string
	Cantidad       decimal.Decimal
}

func (u MateriaUsage) Validate() error {
	if u.MateriaPrimaID <= 0 {
		return fmt.Errorf("%w: materia prima id is required", ErrValidation)
	}
	if u.Cantidad.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: cantidad for materia prima %d must be positive", ErrValidation, u.MateriaPrimaID)
	}
	return nil
}

// Lote is a production unit moving through certification. Its estado leaves
// Pendiente only through the workflow, never via direct update.
type Lote struct {
	ID            int64
	Nombre        string
	FechaCreacion time.Time
	Estado        Estado
	ProcesoID     *int64
	Materias      []MateriaUsage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (l *Lote) Validate() error {
	if strings.TrimSpace(l.Nombre) == "" {
		return fmt.Errorf("%w: nombre is required", ErrValidation)
	}
	if !l.Estado.IsValid() {
		return fmt.Errorf("%w: invalid estado %q", ErrValidation, l.Estado)
	}
	if l.FechaCreacion.IsZero() {
		return fmt.Errorf("%w: fecha de creacion is required", ErrValidation)
	}
	for _, usage := range l.Materias {
		if err := usage.Validate(); err != nil {
			return err
		}
	}
	return nil
}
