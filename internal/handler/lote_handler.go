package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/repository"
	"github.com/certilote/certify-engine/internal/service"
	"github.com/certilote/certify-engine/internal/transport"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type LoteService interface {
	CreateLote(ctx context.Context, lote *domain.Lote) (*domain.Lote, error)
	ListLotes(ctx context.Context, params repository.LoteListParams) ([]domain.Lote, int64, error)
	GetLote(ctx context.Context, id int64) (*domain.Lote, error)
	AssignProceso(ctx context.Context, loteID, procesoID int64) (*domain.Lote, error)
	WorkflowView(ctx context.Context, loteID int64) (*service.WorkflowView, error)
	GetMeasurement(ctx context.Context, loteID int64, numero int) (*domain.Medicion, error)
	SubmitMeasurement(ctx context.Context, loteID int64, numero int, valores map[string]string) (*service.SubmitResult, error)
	EvaluationLog(ctx context.Context, loteID int64) (*domain.Certificado, error)
}

type LoteHandler struct {
	service LoteService
}

func NewLoteHandler(service LoteService) (*LoteHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("lote service is required")
	}
	return &LoteHandler{service: service}, nil
}

func RegisterLoteRoutes(router fiber.Router, service LoteService) error {
	h, err := NewLoteHandler(service)
	if err != nil {
		return err
	}

	lotes := router.Group("/lote", transport.RequireFeature(domain.FeatureLotes))
	lotes.Get("/", h.ListLotes)
	lotes.Post("/", h.CreateLote)
	lotes.Get("/:id", h.GetLote)
	lotes.Post("/:id/proceso", h.AssignProceso)

	return nil
}

type materiaUsageRequest struct {
	IdMateriaPrima int64           `json:"IdMateriaPrima"`
	Cantidad       decimal.Decimal `json:"Cantidad"`
}

type createLoteRequest struct {
	Nombre         string                `json:"Nombre"`
	FechaCreacion  *time.Time            `json:"FechaCreacion"`
	Estado         string                `json:"Estado"`
	MateriasPrimas []materiaUsageRequest `json:"MateriasPrimas"`
}

type assignProcesoRequest struct {
	IdProceso int64 `json:"IdProceso"`
}

type materiaUsageResponse struct {
	IdMateriaPrima int64           `json:"IdMateriaPrima"`
	Nombre         string          `json:"Nombre"`
	Cantidad       decimal.Decimal `json:"Cantidad"`
}

type loteResponse struct {
	IdLote         int64                  `json:"IdLote"`
	Nombre         string                 `json:"Nombre"`
	FechaCreacion  time.Time              `json:"FechaCreacion"`
	Estado         string                 `json:"Estado"`
	IdProceso      *int64                 `json:"IdProceso,omitempty"`
	MateriasPrimas []materiaUsageResponse `json:"MateriasPrimas"`
}

type listLotesResponse struct {
	Data []loteResponse `json:"data"`
	Meta listMeta       `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *LoteHandler) CreateLote(c *fiber.Ctx) error {
	var req createLoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	lote := &domain.Lote{
		Nombre: strings.TrimSpace(req.Nombre),
	}
	if req.FechaCreacion != nil {
		lote.FechaCreacion = *req.FechaCreacion
	}
	if raw := strings.TrimSpace(req.Estado); raw != "" {
		estado, err := domain.ParseEstadoFromString(raw)
		if err != nil {
			return toHTTPError(err)
		}
		lote.Estado = estado
	}
	for _, usage := range req.MateriasPrimas {
		lote.Materias = append(lote.Materias, domain.MateriaUsage{
			MateriaPrimaID: usage.IdMateriaPrima,
			Cantidad:       usage.Cantidad,
		})
	}

	created, err := h.service.CreateLote(c.Context(), lote)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLoteResponse(created))
}

func (h *LoteHandler) ListLotes(c *fiber.Ctx) error {
	params := repository.LoteListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}
	if params.Page < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "page must be >= 1")
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("pageSize must be between 1 and %d", maxPageSize))
	}

	if raw := strings.TrimSpace(c.Query("estado")); raw != "" {
		estado, err := domain.ParseEstadoFromString(raw)
		if err != nil {
			return toHTTPError(err)
		}
		params.Estado = &estado
	}

	lotes, total, err := h.service.ListLotes(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]loteResponse, 0, len(lotes))
	for i := range lotes {
		data = append(data, toLoteResponse(&lotes[i]))
	}
	return c.Status(fiber.StatusOK).JSON(listLotesResponse{
		Data: data,
		Meta: listMeta{Page: params.Page, PageSize: params.PageSize, Total: total},
	})
}

func (h *LoteHandler) GetLote(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	lote, err := h.service.GetLote(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toLoteResponse(lote))
}

func (h *LoteHandler) AssignProceso(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req assignProcesoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	lote, err := h.service.AssignProceso(c.Context(), id, req.IdProceso)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toLoteResponse(lote))
}

func toLoteResponse(lote *domain.Lote) loteResponse {
	if lote == nil {
		return loteResponse{}
	}

	materias := make([]materiaUsageResponse, 0, len(lote.Materias))
	for _, usage := range lote.Materias {
		materias = append(materias, materiaUsageResponse{
			IdMateriaPrima: usage.MateriaPrimaID,
			Nombre:         usage.Nombre,
			Cantidad:       usage.Cantidad,
		})
	}

	return loteResponse{
		IdLote:         lote.ID,
		Nombre:         lote.Nombre,
		FechaCreacion:  lote.FechaCreacion,
		Estado:         lote.Estado.String(),
		IdProceso:      lote.ProcesoID,
		MateriasPrimas: materias,
	}
}
