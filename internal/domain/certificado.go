package domain

import (
	"fmt"
	"strings"
	"time"
)

// Resultado is the final outcome vocabulary used on certificates.
type Resultado string

const (
	ResultadoAprobado  Resultado = "Aprobado"
	ResultadoRechazado Resultado = "Rechazado"
)

func (r Resultado) String() string { return string(r) }

func (r Resultado) IsValid() bool {
	return r == ResultadoAprobado || r == ResultadoRechazado
}

// Estado maps the certificate outcome onto the lote lifecycle.
func (r Resultado) Estado() Estado {
	if r == ResultadoAprobado {
		return EstadoCertificado
	}
	return EstadoRechazado
}

func ParseResultadoFromString(s string) (Resultado, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "aprobado", "aprobada", "certificado", "certificada":
		return ResultadoAprobado, nil
	case "rechazado", "rechazada":
		return ResultadoRechazado, nil
	}
	return "", fmt.Errorf("%w: invalid resultado %q", ErrValidation, s)
}

// PasoResumen summarizes one machine step on a certificate.
type PasoResumen struct {
	Numero         int
	Nombre         string
	CumpleEstandar bool
	Valores        map[string]string
}

// Certificado is the evaluation log assembled once a lote has a medicion for
// every paso. It is a derived, read-only artifact; rendering to image or PDF
// is a collaborator concern.
type Certificado struct {
	ID              string
	LoteID          int64
	Resultado       Resultado
	Motivo          string
	FechaEvaluacion time.Time
	Pasos           []PasoResumen
	CreatedAt       time.Time
}

func (c *Certificado) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: certificado id is required", ErrValidation)
	}
	if c.LoteID <= 0 {
		return fmt.Errorf("%w: lote id is required", ErrValidation)
	}
	if !c.Resultado.IsValid() {
		return fmt.Errorf("%w: invalid resultado %q", ErrValidation, c.Resultado)
	}
	if len(c.Pasos) == 0 {
		return fmt.Errorf("%w: certificado must summarize at least one paso", ErrValidation)
	}
	return nil
}
