package workflow

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/certilote/certify-engine/internal/domain"
)

func rangeDef(nombre string, min, max string) domain.VariableDef {
	return domain.VariableDef{
		Nombre: nombre,
		Min:    decimal.RequireFromString(min),
		Max:    decimal.RequireFromString(max),
	}
}

func TestValidateEntry(t *testing.T) {
	t.Parallel()

	def := rangeDef("Temperatura", "10", "20")

	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{name: "lower bound", raw: "10", valid: true},
		{name: "upper bound", raw: "20", valid: true},
		{name: "interior decimal", raw: "15.5", valid: true},
		{name: "leading plus", raw: "+12", valid: true},
		{name: "bare fraction", raw: ".5", valid: false}, // parses but below min
		{name: "below min", raw: "9.99", valid: false},
		{name: "above max", raw: "20.01", valid: false},
		{name: "not numeric", raw: "abc", valid: false},
		{name: "scientific notation", raw: "1e1", valid: false},
		{name: "double sign", raw: "--5", valid: false},
		{name: "empty", raw: "", valid: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, valid := ValidateEntry(def, tt.raw)
			if valid != tt.valid {
				t.Fatalf("ValidateEntry(%q) valid = %v, want %v", tt.raw, valid, tt.valid)
			}
			if valid && (value.LessThan(def.Min) || value.GreaterThan(def.Max)) {
				t.Fatalf("ValidateEntry(%q) accepted value %s outside [%s, %s]", tt.raw, value, def.Min, def.Max)
			}
		})
	}
}

func TestValidateEntryNegativeRange(t *testing.T) {
	t.Parallel()

	def := rangeDef("Delta", "-5", "-1")
	if _, valid := ValidateEntry(def, "-3.25"); !valid {
		t.Fatal("ValidateEntry(-3.25) should be valid in [-5, -1]")
	}
	if _, valid := ValidateEntry(def, "0"); valid {
		t.Fatal("ValidateEntry(0) should be invalid in [-5, -1]")
	}
}

func TestValidateSubmissionMissingBeforeRange(t *testing.T) {
	t.Parallel()

	paso := domain.MaquinaPaso{
		Numero: 1,
		Nombre: "Horno",
		Variables: []domain.VariableDef{
			rangeDef("Temperatura", "0", "100"),
			rangeDef("Presion", "1", "5"),
		},
	}

	// Empty string counts as "not entered", even though another variable is
	// also out of range; missing wins.
	err := ValidateSubmission(paso, map[string]string{
		"Temperatura": "",
		"Presion":     "999",
	})

	var missing *MissingVariablesError
	if !errors.As(err, &missing) {
		t.Fatalf("ValidateSubmission() error = %v, want MissingVariablesError", err)
	}
	if len(missing.Variables) != 1 || missing.Variables[0] != "Temperatura" {
		t.Fatalf("missing variables = %v, want [Temperatura]", missing.Variables)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatal("MissingVariablesError should wrap ErrValidation")
	}
}

func TestValidateSubmissionOutOfRange(t *testing.T) {
	t.Parallel()

	paso := domain.MaquinaPaso{
		Numero:    2,
		Nombre:    "Templadora",
		Variables: []domain.VariableDef{rangeDef("Temperatura", "0", "100")},
	}

	err := ValidateSubmission(paso, map[string]string{"Temperatura": "999"})

	var outOfRange *OutOfRangeError
	if !errors.As(err, &outOfRange) {
		t.Fatalf("ValidateSubmission() error = %v, want OutOfRangeError", err)
	}
	if len(outOfRange.Variables) != 1 || outOfRange.Variables[0] != "Temperatura" {
		t.Fatalf("out of range variables = %v, want [Temperatura]", outOfRange.Variables)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatal("OutOfRangeError should wrap ErrValidation")
	}
}

func TestValidateSubmissionUndeclaredVariable(t *testing.T) {
	t.Parallel()

	paso := domain.MaquinaPaso{
		Numero:    1,
		Nombre:    "Molino",
		Variables: []domain.VariableDef{rangeDef("Granulometria", "10", "30")},
	}

	err := ValidateSubmission(paso, map[string]string{
		"Granulometria": "20",
		"Humedad":       "5",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ValidateSubmission() error = %v, want ErrValidation for undeclared variable", err)
	}
}

func TestValidateSubmissionOK(t *testing.T) {
	t.Parallel()

	paso := domain.MaquinaPaso{
		Numero: 1,
		Nombre: "Horno",
		Variables: []domain.VariableDef{
			rangeDef("Temperatura", "0", "100"),
			rangeDef("Presion", "1", "5"),
		},
	}

	if err := ValidateSubmission(paso, map[string]string{
		"Temperatura": "85.5",
		"Presion":     "3",
	}); err != nil {
		t.Fatalf("ValidateSubmission() unexpected error = %v", err)
	}
}

func TestEvaluateCompliance(t *testing.T) {
	t.Parallel()

	paso := domain.MaquinaPaso{
		Numero: 1,
		Nombre: "Horno",
		Variables: []domain.VariableDef{
			rangeDef("Temperatura", "0", "100"),
			rangeDef("Presion", "1", "5"),
		},
	}

	if !EvaluateCompliance(paso, map[string]string{"Temperatura": "50", "Presion": "2"}) {
		t.Fatal("all in-range values should comply")
	}
	if EvaluateCompliance(paso, map[string]string{"Temperatura": "150", "Presion": "2"}) {
		t.Fatal("an out-of-range value should not comply")
	}
	if EvaluateCompliance(paso, map[string]string{"Temperatura": "50"}) {
		t.Fatal("a missing value should not comply")
	}
}

func TestComputeFinalResultRejectedCitesFailingPaso(t *testing.T) {
	t.Parallel()

	pasos := []domain.MaquinaPaso{
		{Numero: 1, Nombre: "Tostadora"},
		{Numero: 2, Nombre: "Molino"},
		{Numero: 3, Nombre: "Templadora"},
	}
	mediciones := []domain.Medicion{
		{Numero: 1, CumpleEstandar: true},
		{Numero: 2, CumpleEstandar: false},
		{Numero: 3, CumpleEstandar: true},
	}

	resultado, motivo := ComputeFinalResult(pasos, mediciones)
	if resultado != domain.ResultadoRechazado {
		t.Fatalf("resultado = %s, want Rechazado", resultado)
	}
	if !strings.Contains(motivo, "2 (Molino)") {
		t.Fatalf("motivo %q should cite paso 2 (Molino)", motivo)
	}
}

func TestComputeFinalResultAllCompliant(t *testing.T) {
	t.Parallel()

	pasos := []domain.MaquinaPaso{{Numero: 1, Nombre: "A"}, {Numero: 2, Nombre: "B"}, {Numero: 3, Nombre: "C"}}
	mediciones := []domain.Medicion{
		{Numero: 1, CumpleEstandar: true},
		{Numero: 2, CumpleEstandar: true},
		{Numero: 3, CumpleEstandar: true},
	}

	resultado, motivo := ComputeFinalResult(pasos, mediciones)
	if resultado != domain.ResultadoAprobado {
		t.Fatalf("resultado = %s, want Aprobado", resultado)
	}
	if motivo == "" {
		t.Fatal("motivo should not be empty")
	}
}

func TestComputeFinalResultMultipleFailuresOrdered(t *testing.T) {
	t.Parallel()

	pasos := []domain.MaquinaPaso{{Numero: 2, Nombre: "B"}, {Numero: 10, Nombre: "J"}}
	mediciones := []domain.Medicion{
		{Numero: 10, CumpleEstandar: false},
		{Numero: 2, CumpleEstandar: false},
	}

	_, motivo := ComputeFinalResult(pasos, mediciones)
	if !strings.Contains(motivo, "2 (B), 10 (J)") {
		t.Fatalf("motivo %q should list failures in paso order", motivo)
	}
}
