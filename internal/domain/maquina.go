package domain

import (
	"fmt"
	"strings"
	"time"
)

// Maquina is a catalog entry for production equipment. The image is an
// external URL; upload and rendering are collaborator concerns.
type Maquina struct {
	ID        int64
	Nombre    string
	Imagen    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *Maquina) Validate() error {
	if strings.TrimSpace(m.Nombre) == "" {
		return fmt.Errorf("%w: nombre is required", ErrValidation)
	}
	return nil
}
