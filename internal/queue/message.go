package queue

import (
	"fmt"

	"github.com/certilote/certify-engine/internal/domain"
)

// CertificateMessage is the broker payload emitted when a lote finishes its
// last machine step. The worker loads the lote state from the database, so
// the message only identifies the lote and the computed resultado.
type CertificateMessage struct {
	LoteID        int64            `json:"loteId"`
	CorrelationID string           `json:"correlationId,omitempty"`
	Resultado     domain.Resultado `json:"resultado"`
}

func (m CertificateMessage) Validate() error {
	if m.LoteID <= 0 {
		return fmt.Errorf("loteId is required")
	}
	if !m.Resultado.IsValid() {
		return fmt.Errorf("invalid resultado %q", m.Resultado)
	}
	return nil
}
