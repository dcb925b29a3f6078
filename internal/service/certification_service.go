package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/observability"
	"github.com/certilote/certify-engine/internal/queue"
	"github.com/certilote/certify-engine/internal/ratelimit"
	"github.com/certilote/certify-engine/internal/repository"
	"github.com/certilote/certify-engine/internal/workflow"
)

// LogCache keeps assembled evaluation logs close to the API.
type LogCache interface {
	Get(ctx context.Context, loteID int64) (*domain.Certificado, bool, error)
	Set(ctx context.Context, certificado *domain.Certificado) error
}

// CertificationService drives the batch certification workflow: sequential
// machine gating, measurement validation, and final result computation.
type CertificationService struct {
	lotes       repository.LoteRepository
	procesos    repository.ProcesoRepository
	mediciones  repository.MedicionRepository
	certs       repository.CertificadoRepository
	publisher   queue.Publisher
	rateLimiter ratelimit.RateLimiter
	logCache    LogCache
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// WorkflowStep joins a process step with its gate state and any persisted
// measurement.
type WorkflowStep struct {
	Paso     domain.MaquinaPaso
	State    workflow.StepState
	Medicion *domain.Medicion
}

// WorkflowView is the batched read model for a lote's transformation screen.
type WorkflowView struct {
	Lote    *domain.Lote
	Proceso *domain.Proceso
	Steps   []WorkflowStep
	Phase   workflow.Phase
}

// SubmitResult reports the outcome of an accepted measurement submission.
type SubmitResult struct {
	Medicion   *domain.Medicion
	Finalizado bool
	Resultado  domain.Resultado
	Mensaje    string
}

func NewCertificationService(
	lotes repository.LoteRepository,
	procesos repository.ProcesoRepository,
	mediciones repository.MedicionRepository,
	certs repository.CertificadoRepository,
	publisher queue.Publisher,
	rateLimiter ratelimit.RateLimiter,
	logCache LogCache,
	logger *zap.Logger,
) (*CertificationService, error) {
	if lotes == nil || procesos == nil || mediciones == nil || certs == nil {
		return nil, fmt.Errorf("workflow repositories are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CertificationService{
		lotes:       lotes,
		procesos:    procesos,
		mediciones:  mediciones,
		certs:       certs,
		publisher:   publisher,
		rateLimiter: rateLimiter,
		logCache:    logCache,
		logger:      logger,
		now:         time.Now,
	}, nil
}

func (s *CertificationService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *CertificationService) CreateLote(ctx context.Context, lote *domain.Lote) (*domain.Lote, error) {
	if lote == nil {
		return nil, fmt.Errorf("%w: lote is required", domain.ErrValidation)
	}

	if lote.Estado == "" {
		lote.Estado = domain.EstadoPendiente
	}
	if lote.FechaCreacion.IsZero() {
		lote.FechaCreacion = s.now().UTC()
	}
	if err := lote.Validate(); err != nil {
		return nil, err
	}

	if err := s.lotes.Create(ctx, lote); err != nil {
		return nil, err
	}
	return lote, nil
}

func (s *CertificationService) ListLotes(ctx context.Context, params repository.LoteListParams) ([]domain.Lote, int64, error) {
	return s.lotes.List(ctx, params)
}

func (s *CertificationService) GetLote(ctx context.Context, id int64) (*domain.Lote, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: lote id is required", domain.ErrValidation)
	}
	return s.lotes.GetByID(ctx, id)
}

// AssignProceso binds a process definition to a pending lote. Finalized lotes
// reject reassignment.
func (s *CertificationService) AssignProceso(ctx context.Context, loteID, procesoID int64) (*domain.Lote, error) {
	if loteID <= 0 {
		return nil, fmt.Errorf("%w: lote id is required", domain.ErrValidation)
	}
	if procesoID <= 0 {
		return nil, fmt.Errorf("%w: proceso id is required", domain.ErrValidation)
	}

	if _, err := s.procesos.GetByID(ctx, procesoID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: proceso %d does not exist", domain.ErrValidation, procesoID)
		}
		return nil, err
	}

	if err := s.lotes.AssignProceso(ctx, loteID, procesoID); err != nil {
		return nil, err
	}
	return s.lotes.GetByID(ctx, loteID)
}

// AssignedProcess resolves the process definition for a lote, or reports that
// the lote has none yet.
func (s *CertificationService) AssignedProcess(ctx context.Context, loteID int64) (*domain.Lote, *domain.Proceso, error) {
	lote, err := s.lotes.GetByID(ctx, loteID)
	if err != nil {
		return nil, nil, err
	}
	if lote.ProcesoID == nil {
		return lote, nil, fmt.Errorf("lote %d: %w", loteID, domain.ErrNoProcessAssigned)
	}

	proceso, err := s.procesos.GetByID(ctx, *lote.ProcesoID)
	if err != nil {
		return nil, nil, err
	}
	return lote, proceso, nil
}

// WorkflowView returns the ordered steps of a lote joined with gate state and
// any persisted measurement, derived fresh from the records on every call.
func (s *CertificationService) WorkflowView(ctx context.Context, loteID int64) (*WorkflowView, error) {
	lote, proceso, err := s.AssignedProcess(ctx, loteID)
	if err != nil {
		return nil, err
	}

	mediciones, err := s.mediciones.ListByLote(ctx, loteID)
	if err != nil {
		return nil, err
	}

	gates := workflow.ComputeGates(proceso.Pasos, mediciones)
	steps := make([]WorkflowStep, 0, len(gates))
	for _, gate := range gates {
		steps = append(steps, WorkflowStep{
			Paso:     gate.Paso,
			State:    gate.State,
			Medicion: gate.Medicion,
		})
	}

	return &WorkflowView{
		Lote:    lote,
		Proceso: proceso,
		Steps:   steps,
		Phase:   workflow.EvaluationPhase(gates),
	}, nil
}

// GetMeasurement returns the persisted record for one machine step, or
// NotFound when none was submitted yet.
func (s *CertificationService) GetMeasurement(ctx context.Context, loteID int64, numero int) (*domain.Medicion, error) {
	if loteID <= 0 {
		return nil, fmt.Errorf("%w: lote id is required", domain.ErrValidation)
	}
	if numero < 1 {
		return nil, fmt.Errorf("%w: maquina numero must be positive", domain.ErrValidation)
	}
	return s.mediciones.GetByLoteAndNumero(ctx, loteID, numero)
}

// SubmitMeasurement validates and persists a measurement for one machine
// step. Validation failures block persistence entirely; a failing measurement
// is still persisted and advances the gate. When the last step completes the
// final result is computed, the lote estado updated, and a finalization
// message published for certificate assembly.
func (s *CertificationService) SubmitMeasurement(ctx context.Context, loteID int64, numero int, valores map[string]string) (*SubmitResult, error) {
	if loteID <= 0 {
		return nil, fmt.Errorf("%w: lote id is required", domain.ErrValidation)
	}
	if numero < 1 {
		return nil, fmt.Errorf("%w: maquina numero must be positive", domain.ErrValidation)
	}

	lote, proceso, err := s.AssignedProcess(ctx, loteID)
	if err != nil {
		return nil, err
	}
	if lote.Estado.IsFinal() {
		s.rejectMedicion("lote_finalized")
		return nil, fmt.Errorf("%w: lote %d already evaluated as %s", domain.ErrConflict, loteID, lote.Estado)
	}

	paso, ok := proceso.Paso(numero)
	if !ok {
		return nil, fmt.Errorf("%w: maquina %d is not part of proceso %d", domain.ErrNotFound, numero, proceso.ID)
	}

	if s.rateLimiter != nil {
		allowed, err := s.rateLimiter.Allow(ctx, fmt.Sprintf("lote:%d", loteID))
		if err != nil {
			return nil, fmt.Errorf("rate limiter failed: %w", err)
		}
		if !allowed {
			s.rejectMedicion("rate_limited")
			return nil, fmt.Errorf("lote %d: %w", loteID, domain.ErrRateLimited)
		}
	}

	mediciones, err := s.mediciones.ListByLote(ctx, loteID)
	if err != nil {
		return nil, err
	}

	gates := workflow.ComputeGates(proceso.Pasos, mediciones)
	for _, gate := range gates {
		if gate.Paso.Numero != numero {
			continue
		}
		switch gate.State {
		case workflow.StateCompleted:
			s.rejectMedicion("already_recorded")
			return nil, fmt.Errorf("%w: maquina %d already has a measurement", domain.ErrConflict, numero)
		case workflow.StateLocked:
			s.rejectMedicion("step_locked")
			return nil, fmt.Errorf("%w: maquina %d is locked, complete prior steps first", domain.ErrConflict, numero)
		}
	}

	// Local validation runs before any write. An invalid submission leaves
	// zero traces in storage.
	if err := workflow.ValidateSubmission(paso, valores); err != nil {
		s.rejectMedicion("invalid_values")
		return nil, err
	}

	cumple := workflow.EvaluateCompliance(paso, valores)
	medicion := &domain.Medicion{
		LoteID:         loteID,
		Numero:         numero,
		Valores:        valores,
		CumpleEstandar: cumple,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.mediciones.Create(ctx, medicion); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.rejectMedicion("already_recorded")
			return nil, fmt.Errorf("%w: maquina %d already has a measurement", domain.ErrConflict, numero)
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncMedicionSubmitted(cumple)
	}

	result := &SubmitResult{
		Medicion: medicion,
		Mensaje:  "Medición registrada",
	}
	if !cumple {
		result.Mensaje = "Medición registrada: no cumple el estándar"
	}

	mediciones = append(mediciones, *medicion)
	gates = workflow.ComputeGates(proceso.Pasos, mediciones)
	if !workflow.ReadyToFinalize(gates) {
		return result, nil
	}

	resultado, motivo := workflow.ComputeFinalResult(proceso.Pasos, mediciones)
	if err := s.lotes.UpdateEstado(ctx, loteID, resultado.Estado()); err != nil {
		return nil, fmt.Errorf("failed to finalize lote %d: %w", loteID, err)
	}
	if s.metrics != nil {
		s.metrics.IncLoteFinalized(resultado.String())
	}

	result.Finalizado = true
	result.Resultado = resultado
	result.Mensaje = motivo

	s.publishFinalization(ctx, loteID, resultado)

	return result, nil
}

// publishFinalization enqueues certificate assembly. Publish failures are
// logged, not returned: the finalize scanner reconciles lotes whose message
// never reached the broker.
func (s *CertificationService) publishFinalization(ctx context.Context, loteID int64, resultado domain.Resultado) {
	if s.publisher == nil {
		return
	}

	msg := queue.CertificateMessage{
		LoteID:        loteID,
		CorrelationID: uuid.NewString(),
		Resultado:     resultado,
	}
	if err := s.publisher.Publish(ctx, queue.CertificatesQueue, msg); err != nil {
		s.logger.Error("failed to publish finalization message",
			zap.Int64("loteId", loteID),
			zap.String("resultado", resultado.String()),
			zap.Error(err),
		)
	}
}

// EvaluationLog returns the assembled certificate for a finalized lote. It
// prefers the redis cache, then the persisted certificate, and finally
// assembles one on the fly when the worker has not caught up yet. A lote that
// is still pending yields NotFound.
func (s *CertificationService) EvaluationLog(ctx context.Context, loteID int64) (*domain.Certificado, error) {
	if loteID <= 0 {
		return nil, fmt.Errorf("%w: lote id is required", domain.ErrValidation)
	}

	if s.logCache != nil {
		cached, ok, err := s.logCache.Get(ctx, loteID)
		if err != nil {
			s.logger.Warn("log cache read failed", zap.Int64("loteId", loteID), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	certificado, err := s.certs.GetByLoteID(ctx, loteID)
	if err == nil {
		s.cacheLog(ctx, certificado)
		return certificado, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	lote, err := s.lotes.GetByID(ctx, loteID)
	if err != nil {
		return nil, err
	}
	if !lote.Estado.IsFinal() {
		return nil, fmt.Errorf("%w: lote %d has no evaluation log yet", domain.ErrNotFound, loteID)
	}

	certificado, err = s.assembleCertificate(ctx, lote)
	if err != nil {
		return nil, err
	}

	if err := s.certs.Upsert(ctx, certificado); err != nil {
		s.logger.Warn("failed to persist assembled certificate",
			zap.Int64("loteId", loteID),
			zap.Error(err),
		)
	}
	s.cacheLog(ctx, certificado)

	return certificado, nil
}

// assembleCertificate builds the evaluation log from the persisted records
// and the process definition. Shared by the on-demand fallback and the
// certificate worker.
func (s *CertificationService) assembleCertificate(ctx context.Context, lote *domain.Lote) (*domain.Certificado, error) {
	if lote.ProcesoID == nil {
		return nil, fmt.Errorf("lote %d: %w", lote.ID, domain.ErrNoProcessAssigned)
	}

	proceso, err := s.procesos.GetByID(ctx, *lote.ProcesoID)
	if err != nil {
		return nil, err
	}

	mediciones, err := s.mediciones.ListByLote(ctx, lote.ID)
	if err != nil {
		return nil, err
	}

	gates := workflow.ComputeGates(proceso.Pasos, mediciones)
	if !workflow.ReadyToFinalize(gates) {
		return nil, fmt.Errorf("%w: lote %d is missing measurement records", domain.ErrConflict, lote.ID)
	}

	resultado, motivo := workflow.ComputeFinalResult(proceso.Pasos, mediciones)

	pasos := make([]domain.PasoResumen, 0, len(gates))
	for _, gate := range gates {
		pasos = append(pasos, domain.PasoResumen{
			Numero:         gate.Paso.Numero,
			Nombre:         gate.Paso.Nombre,
			CumpleEstandar: gate.Medicion.CumpleEstandar,
			Valores:        gate.Medicion.Valores,
		})
	}

	return &domain.Certificado{
		ID:              uuid.NewString(),
		LoteID:          lote.ID,
		Resultado:       resultado,
		Motivo:          motivo,
		FechaEvaluacion: s.now().UTC(),
		Pasos:           pasos,
	}, nil
}

func (s *CertificationService) cacheLog(ctx context.Context, certificado *domain.Certificado) {
	if s.logCache == nil || certificado == nil {
		return
	}
	if err := s.logCache.Set(ctx, certificado); err != nil {
		s.logger.Warn("log cache write failed",
			zap.Int64("loteId", certificado.LoteID),
			zap.Error(err),
		)
	}
}

func (s *CertificationService) rejectMedicion(reason string) {
	if s.metrics != nil {
		s.metrics.IncMedicionRejected(reason)
	}
}
