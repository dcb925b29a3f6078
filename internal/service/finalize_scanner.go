package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/observability"
	"github.com/certilote/certify-engine/internal/queue"
	"github.com/certilote/certify-engine/internal/repository"
)

const (
	defaultFinalizeScanInterval = 30 * time.Second
	defaultFinalizeScanLimit    = 100
)

// FinalizeScanner periodically requeues finalized lotes that have no
// persisted certificate, covering publish failures at submission time.
type FinalizeScanner struct {
	lotes     repository.LoteRepository
	publisher queue.Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	limit     int
}

func NewFinalizeScanner(
	lotes repository.LoteRepository,
	publisher queue.Publisher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*FinalizeScanner, error) {
	if lotes == nil {
		return nil, fmt.Errorf("lote repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultFinalizeScanInterval
	}
	if limit <= 0 {
		limit = defaultFinalizeScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FinalizeScanner{
		lotes:     lotes,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		limit:     limit,
	}, nil
}

func (s *FinalizeScanner) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *FinalizeScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial scan so lotes stranded by a crash do not wait for the
	// first ticker edge.
	if err := s.scanPending(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("finalize scanner initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanPending(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("finalize scanner scan failed", zap.Error(err))
			}
		}
	}
}

func (s *FinalizeScanner) scanPending(ctx context.Context) error {
	lotes, err := s.lotes.ListFinalizadosSinCertificado(ctx, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch finalized lotes without certificate: %w", err)
	}

	for i := range lotes {
		lote := lotes[i]

		resultado := domain.ResultadoRechazado
		if lote.Estado == domain.EstadoCertificado {
			resultado = domain.ResultadoAprobado
		}

		msg := queue.CertificateMessage{
			LoteID:        lote.ID,
			CorrelationID: uuid.NewString(),
			Resultado:     resultado,
		}
		if err := s.publisher.Publish(ctx, queue.CertificatesQueue, msg); err != nil {
			s.logger.Error("failed to requeue finalized lote",
				zap.Int64("loteId", lote.ID),
				zap.Error(err),
			)
			continue
		}
		if s.metrics != nil {
			s.metrics.IncScannerRequeued()
		}
	}

	return nil
}
