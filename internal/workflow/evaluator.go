package workflow

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/certilote/certify-engine/internal/domain"
)

// signedDecimalPattern accepts operator input like "15", "-3.5", "+.25".
// Anything else (including scientific notation) is rejected before parsing.
var signedDecimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)$`)

// MissingVariablesError lists declared variables that were absent or left
// empty. An empty value means "not yet entered", which blocks submission
// without counting as invalid input.
type MissingVariablesError struct {
	Variables []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("missing variables: %s", strings.Join(e.Variables, ", "))
}

func (e *MissingVariablesError) Unwrap() error { return domain.ErrValidation }

// OutOfRangeError lists variables whose values fail the declared range or do
// not parse as a signed decimal.
type OutOfRangeError struct {
	Variables []string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("out of range variables: %s", strings.Join(e.Variables, ", "))
}

func (e *OutOfRangeError) Unwrap() error { return domain.ErrValidation }

// ValidateEntry checks a single raw value against its definition. The value
// is accepted only if it matches the signed-decimal pattern, parses, and
// falls inside [min, max]. Empty input is the caller's concern (it means
// "not entered", not "invalid").
func ValidateEntry(def domain.VariableDef, raw string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(raw)
	if !signedDecimalPattern.MatchString(trimmed) {
		return decimal.Decimal{}, false
	}

	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, false
	}

	if value.LessThan(def.Min) || value.GreaterThan(def.Max) {
		return decimal.Decimal{}, false
	}

	return value, true
}

// ValidateSubmission verifies that every declared variable of the paso has a
// valid in-range value. It fails with MissingVariablesError before any range
// checking, then with OutOfRangeError. Extra undeclared keys are rejected as
// validation errors too. A nil return means the submission may be persisted.
func ValidateSubmission(paso domain.MaquinaPaso, valores map[string]string) error {
	var missing []string
	var outOfRange []string

	for _, def := range paso.Variables {
		raw, ok := valores[def.Nombre]
		if !ok || strings.TrimSpace(raw) == "" {
			missing = append(missing, def.Nombre)
			continue
		}
		if _, valid := ValidateEntry(def, raw); !valid {
			outOfRange = append(outOfRange, def.Nombre)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingVariablesError{Variables: missing}
	}
	if len(outOfRange) > 0 {
		sort.Strings(outOfRange)
		return &OutOfRangeError{Variables: outOfRange}
	}

	declared := make(map[string]struct{}, len(paso.Variables))
	for _, def := range paso.Variables {
		declared[def.Nombre] = struct{}{}
	}
	for nombre := range valores {
		if _, ok := declared[nombre]; !ok {
			return fmt.Errorf("%w: variable %q is not declared for paso %d", domain.ErrValidation, nombre, paso.Numero)
		}
	}

	return nil
}

// EvaluateCompliance reports whether every declared variable value is within
// its range. It is computed once at submission time and stored on the
// medicion; it must never be re-derived from possibly edited definitions.
func EvaluateCompliance(paso domain.MaquinaPaso, valores map[string]string) bool {
	for _, def := range paso.Variables {
		raw, ok := valores[def.Nombre]
		if !ok {
			return false
		}
		if _, valid := ValidateEntry(def, raw); !valid {
			return false
		}
	}
	return true
}

// ComputeFinalResult aggregates the stored compliance flags into the lote's
// final outcome: Aprobado iff every medicion meets the standard, otherwise
// Rechazado with a motivo citing the failing pasos.
func ComputeFinalResult(pasos []domain.MaquinaPaso, mediciones []domain.Medicion) (domain.Resultado, string) {
	nombres := make(map[int]string, len(pasos))
	for _, paso := range pasos {
		nombres[paso.Numero] = paso.Nombre
	}

	ordered := make([]domain.Medicion, len(mediciones))
	copy(ordered, mediciones)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Numero < ordered[j].Numero
	})

	var failing []string
	for _, medicion := range ordered {
		if medicion.CumpleEstandar {
			continue
		}
		label := fmt.Sprintf("%d", medicion.Numero)
		if nombre, ok := nombres[medicion.Numero]; ok {
			label = fmt.Sprintf("%d (%s)", medicion.Numero, nombre)
		}
		failing = append(failing, label)
	}

	if len(failing) == 0 {
		return domain.ResultadoAprobado, "Todas las máquinas cumplen el estándar"
	}

	return domain.ResultadoRechazado, fmt.Sprintf("Incumplimiento del estándar en máquina(s): %s", strings.Join(failing, ", "))
}
