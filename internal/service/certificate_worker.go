package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/observability"
	"github.com/certilote/certify-engine/internal/queue"
	"github.com/certilote/certify-engine/internal/repository"
)

const minWorkerConcurrency = 1

// CertificateWorker consumes finalization messages and persists the
// assembled certificate. Redelivery is safe: an existing certificate wins and
// the message is acked.
type CertificateWorker struct {
	workflow    *CertificationService
	lotes       repository.LoteRepository
	certs       repository.CertificadoRepository
	consumer    queue.Consumer
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
}

func NewCertificateWorker(
	workflowSvc *CertificationService,
	lotes repository.LoteRepository,
	certs repository.CertificadoRepository,
	consumer queue.Consumer,
	concurrency int,
	logger *zap.Logger,
) (*CertificateWorker, error) {
	if workflowSvc == nil {
		return nil, fmt.Errorf("certification service is required")
	}
	if lotes == nil || certs == nil {
		return nil, fmt.Errorf("worker repositories are required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CertificateWorker{
		workflow:    workflowSvc,
		lotes:       lotes,
		certs:       certs,
		consumer:    consumer,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (w *CertificateWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start consumes the certificates queue until context cancellation.
func (w *CertificateWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("certificate worker started", zap.Int("workerId", workerID))

			err := w.consumer.Consume(groupCtx, queue.CertificatesQueue, w.processMessage)
			if err != nil {
				w.logger.Error("certificate worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("certificate worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (w *CertificateWorker) processMessage(ctx context.Context, msg queue.CertificateMessage) error {
	if w.metrics != nil {
		w.metrics.IncWorkerInFlight()
		defer w.metrics.DecWorkerInFlight()
	}

	logger := w.logger.With(
		zap.Int64("loteId", msg.LoteID),
		zap.String("correlationId", msg.CorrelationID),
	)

	// Redelivered message for an already assembled certificate: refresh the
	// cache and ack.
	existing, err := w.certs.GetByLoteID(ctx, msg.LoteID)
	if err == nil {
		w.workflow.cacheLog(ctx, existing)
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to check existing certificate: %w", err)
	}

	lote, err := w.lotes.GetByID(ctx, msg.LoteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("lote not found for finalization message, skipping")
			return nil
		}
		return fmt.Errorf("failed to load lote: %w", err)
	}
	if !lote.Estado.IsFinal() {
		logger.Warn("finalization message for non-final lote, skipping",
			zap.String("estado", lote.Estado.String()),
		)
		return nil
	}

	assemblyStart := w.now()
	certificado, err := w.workflow.assembleCertificate(ctx, lote)
	if err != nil {
		return fmt.Errorf("failed to assemble certificate: %w", err)
	}
	if w.metrics != nil {
		w.metrics.ObserveCertificateAssemblyDuration(w.now().Sub(assemblyStart))
	}

	if certificado.Resultado != msg.Resultado {
		// The records are the source of truth. Keep the recomputed value and
		// note the mismatch.
		logger.Warn("message resultado differs from recomputed value",
			zap.String("message", msg.Resultado.String()),
			zap.String("recomputed", certificado.Resultado.String()),
		)
	}

	if err := w.certs.Upsert(ctx, certificado); err != nil {
		return fmt.Errorf("failed to persist certificate: %w", err)
	}
	w.workflow.cacheLog(ctx, certificado)

	logger.Info("certificate assembled",
		zap.String("resultado", certificado.Resultado.String()),
		zap.String("certificadoId", certificado.ID),
	)
	return nil
}
