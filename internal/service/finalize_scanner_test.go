package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/queue"
)

func TestScanPendingRequeuesFinalizedLotes(t *testing.T) {
	t.Parallel()

	procesoID := int64(10)
	lotes := &fakeLoteRepo{
		listSinCertificadoFn: func(ctx context.Context, limit int) ([]domain.Lote, error) {
			if limit != 100 {
				t.Fatalf("limit = %d, want default 100", limit)
			}
			return []domain.Lote{
				{ID: 1, Nombre: "Lote 1", Estado: domain.EstadoCertificado, ProcesoID: &procesoID},
				{ID: 2, Nombre: "Lote 2", Estado: domain.EstadoRechazado, ProcesoID: &procesoID},
			}, nil
		},
	}

	var published []queue.CertificateMessage
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.CertificateMessage) error {
			if queueName != queue.CertificatesQueue {
				t.Fatalf("queue = %q, want %q", queueName, queue.CertificatesQueue)
			}
			published = append(published, msg)
			return nil
		},
	}

	scanner, err := NewFinalizeScanner(lotes, publisher, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewFinalizeScanner() error = %v", err)
	}

	if err := scanner.scanPending(context.Background()); err != nil {
		t.Fatalf("scanPending() error = %v", err)
	}

	if len(published) != 2 {
		t.Fatalf("published = %d messages, want 2", len(published))
	}
	if published[0].LoteID != 1 || published[0].Resultado != domain.ResultadoAprobado {
		t.Fatalf("message 0 = %+v, want Aprobado for certified lote", published[0])
	}
	if published[1].LoteID != 2 || published[1].Resultado != domain.ResultadoRechazado {
		t.Fatalf("message 1 = %+v, want Rechazado for rejected lote", published[1])
	}
	if published[0].CorrelationID == "" || published[0].CorrelationID == published[1].CorrelationID {
		t.Fatal("each requeued message should carry its own correlation id")
	}
}

func TestScanPendingContinuesPastPublishFailure(t *testing.T) {
	t.Parallel()

	lotes := &fakeLoteRepo{
		listSinCertificadoFn: func(ctx context.Context, limit int) ([]domain.Lote, error) {
			return []domain.Lote{
				{ID: 1, Nombre: "Lote 1", Estado: domain.EstadoCertificado},
				{ID: 2, Nombre: "Lote 2", Estado: domain.EstadoRechazado},
			}, nil
		},
	}

	var published []int64
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.CertificateMessage) error {
			if msg.LoteID == 1 {
				return errors.New("broker unavailable")
			}
			published = append(published, msg.LoteID)
			return nil
		},
	}

	scanner, err := NewFinalizeScanner(lotes, publisher, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewFinalizeScanner() error = %v", err)
	}

	if err := scanner.scanPending(context.Background()); err != nil {
		t.Fatalf("scanPending() error = %v, publish failure should not abort the scan", err)
	}
	if len(published) != 1 || published[0] != 2 {
		t.Fatalf("published = %v, want the remaining lote", published)
	}
}

func TestScanPendingPropagatesRepositoryError(t *testing.T) {
	t.Parallel()

	repoErr := errors.New("connection lost")
	lotes := &fakeLoteRepo{
		listSinCertificadoFn: func(ctx context.Context, limit int) ([]domain.Lote, error) {
			return nil, repoErr
		},
	}

	scanner, err := NewFinalizeScanner(lotes, &fakePublisher{}, 0, 0, nil)
	if err != nil {
		t.Fatalf("NewFinalizeScanner() error = %v", err)
	}

	if err := scanner.scanPending(context.Background()); !errors.Is(err, repoErr) {
		t.Fatalf("scanPending() error = %v, want repository error", err)
	}
}

func TestScannerStartRunsInitialScanAndStops(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	scans := 0
	lotes := &fakeLoteRepo{
		listSinCertificadoFn: func(ctx context.Context, limit int) ([]domain.Lote, error) {
			mu.Lock()
			scans++
			mu.Unlock()
			return nil, nil
		},
	}

	scanner, err := NewFinalizeScanner(lotes, &fakePublisher{}, time.Hour, 10, nil)
	if err != nil {
		t.Fatalf("NewFinalizeScanner() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- scanner.Start(ctx)
	}()

	// The initial scan runs before the first ticker edge, synchronously with
	// respect to Start's goroutine, so a short wait suffices.
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := scans
		mu.Unlock()
		if n >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("initial scan never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop after context cancellation")
	}
}
