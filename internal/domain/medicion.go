package domain

import (
	"fmt"
	"time"
)

// Medicion is the measurement record captured for one (lote, paso) pair.
// It is written exactly once; CumpleEstandar is computed at submission time
// and never recomputed from later definition edits, which keeps the
// certificate auditable.
type Medicion struct {
	ID             int64
	LoteID         int64
	Numero         int
	Valores        map[string]string
	CumpleEstandar bool
	CreatedAt      time.Time
}

func (m *Medicion) Validate() error {
	if m.LoteID <= 0 {
		return fmt.Errorf("%w: lote id is required", ErrValidation)
	}
	if m.Numero < 1 {
		return fmt.Errorf("%w: paso numero must be >= 1", ErrValidation)
	}
	if len(m.Valores) == 0 {
		return fmt.Errorf("%w: valores must not be empty", ErrValidation)
	}
	return nil
}
