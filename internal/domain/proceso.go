package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VariableDef declares an allowed numeric range for one measured variable.
// It is a validation contract only; the workflow never mutates it.
type VariableDef struct {
	Nombre string
	Min    decimal.Decimal
	Max    decimal.Decimal
}

func (v VariableDef) Validate() error {
	if strings.TrimSpace(v.Nombre) == "" {
		return fmt.Errorf("%w: variable nombre is required", ErrValidation)
	}
	if v.Min.GreaterThan(v.Max) {
		return fmt.Errorf("%w: variable %q has min %s greater than max %s", ErrValidation, v.Nombre, v.Min, v.Max)
	}
	return nil
}

// MaquinaPaso is one stage of a proceso. Numero defines the gating order.
type MaquinaPaso struct {
	Numero    int
	Nombre    string
	Imagen    string
	Variables []VariableDef
}

func (p MaquinaPaso) Validate() error {
	if p.Numero < 1 {
		return fmt.Errorf("%w: paso numero must be >= 1", ErrValidation)
	}
	if strings.TrimSpace(p.Nombre) == "" {
		return fmt.Errorf("%w: paso %d nombre is required", ErrValidation, p.Numero)
	}
	if len(p.Variables) == 0 {
		return fmt.Errorf("%w: paso %d must declare at least one variable", ErrValidation, p.Numero)
	}

	seen := make(map[string]struct{}, len(p.Variables))
	for _, variable := range p.Variables {
		if err := variable.Validate(); err != nil {
			return err
		}
		name := strings.TrimSpace(variable.Nombre)
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: paso %d declares variable %q twice", ErrValidation, p.Numero, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Proceso is an ordered template of machine steps a lote must pass through.
type Proceso struct {
	ID          int64
	Nombre      string
	Descripcion string
	Pasos       []MaquinaPaso
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate enforces the authoring invariants: at least one paso, unique paso
// numbers, and valid variable ranges. Pasos are sorted by numero as a side
// effect so gating always sees the strict total order.
func (p *Proceso) Validate() error {
	if strings.TrimSpace(p.Nombre) == "" {
		return fmt.Errorf("%w: nombre is required", ErrValidation)
	}
	if len(p.Pasos) == 0 {
		return fmt.Errorf("%w: proceso must have at least one paso", ErrValidation)
	}

	seen := make(map[int]struct{}, len(p.Pasos))
	for _, paso := range p.Pasos {
		if err := paso.Validate(); err != nil {
			return err
		}
		if _, ok := seen[paso.Numero]; ok {
			return fmt.Errorf("%w: duplicate paso numero %d", ErrValidation, paso.Numero)
		}
		seen[paso.Numero] = struct{}{}
	}

	p.SortPasos()
	return nil
}

func (p *Proceso) SortPasos() {
	sort.Slice(p.Pasos, func(i, j int) bool {
		return p.Pasos[i].Numero < p.Pasos[j].Numero
	})
}

// Paso returns the step with the given numero.
func (p *Proceso) Paso(numero int) (MaquinaPaso, bool) {
	for _, paso := range p.Pasos {
		if paso.Numero == numero {
			return paso, true
		}
	}
	return MaquinaPaso{}, false
}
