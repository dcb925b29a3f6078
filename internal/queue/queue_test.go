package queue

import (
	"encoding/json"
	"testing"

	"github.com/certilote/certify-engine/internal/domain"
)

func TestCertificateMessageValidate(t *testing.T) {
	msg := CertificateMessage{
		LoteID:        42,
		CorrelationID: "corr-1",
		Resultado:     domain.ResultadoAprobado,
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	msg.LoteID = 0
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for missing lote id")
	}

	msg.LoteID = 42
	msg.Resultado = domain.Resultado("invalid")
	if err := msg.Validate(); err == nil {
		t.Fatal("expected error for invalid resultado")
	}
}

func TestCertificateMessageJSON(t *testing.T) {
	msg := CertificateMessage{
		LoteID:    7,
		Resultado: domain.ResultadoRechazado,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded CertificateMessage
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.LoteID != 7 || decoded.Resultado != domain.ResultadoRechazado {
		t.Fatalf("decoded = %+v, want original", decoded)
	}
	if decoded.CorrelationID != "" {
		t.Fatalf("CorrelationID = %q, want empty", decoded.CorrelationID)
	}
}

func TestQueueNames(t *testing.T) {
	if CertificatesQueue != "certificates" {
		t.Fatalf("CertificatesQueue = %q", CertificatesQueue)
	}
	if CertificatesDLQ != "dlq.certificates" {
		t.Fatalf("CertificatesDLQ = %q", CertificatesDLQ)
	}
}
