package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MateriaPrima is a raw material available for lote composition.
type MateriaPrima struct {
	ID          int64
	Nombre      string
	Descripcion string
	Cantidad    decimal.Decimal
	Unidad      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m *MateriaPrima) Validate() error {
	if strings.TrimSpace(m.Nombre) == "" {
		return fmt.Errorf("%w: nombre is required", ErrValidation)
	}
	if m.Cantidad.IsNegative() {
		return fmt.Errorf("%w: cantidad must not be negative", ErrValidation)
	}
	return nil
}
