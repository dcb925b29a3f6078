package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/certilote/certify-engine/internal/domain"
	"github.com/certilote/certify-engine/internal/transport"
)

type CatalogService interface {
	CreateMateriaPrima(ctx context.Context, materia *domain.MateriaPrima) (*domain.MateriaPrima, error)
	GetMateriaPrima(ctx context.Context, id int64) (*domain.MateriaPrima, error)
	ListMateriasPrimas(ctx context.Context) ([]domain.MateriaPrima, error)
	UpdateMateriaPrima(ctx context.Context, materia *domain.MateriaPrima) (*domain.MateriaPrima, error)
	DeleteMateriaPrima(ctx context.Context, id int64) error

	CreateMaquina(ctx context.Context, maquina *domain.Maquina) (*domain.Maquina, error)
	GetMaquina(ctx context.Context, id int64) (*domain.Maquina, error)
	ListMaquinas(ctx context.Context) ([]domain.Maquina, error)
	UpdateMaquina(ctx context.Context, maquina *domain.Maquina) (*domain.Maquina, error)
	DeleteMaquina(ctx context.Context, id int64) error

	CreateProceso(ctx context.Context, proceso *domain.Proceso) (*domain.Proceso, error)
	GetProceso(ctx context.Context, id int64) (*domain.Proceso, error)
	ListProcesos(ctx context.Context) ([]domain.Proceso, error)
	DeleteProceso(ctx context.Context, id int64) error
}

type CatalogHandler struct {
	service CatalogService
}

func NewCatalogHandler(service CatalogService) (*CatalogHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("catalog service is required")
	}
	return &CatalogHandler{service: service}, nil
}

func RegisterCatalogRoutes(router fiber.Router, service CatalogService) error {
	h, err := NewCatalogHandler(service)
	if err != nil {
		return err
	}

	materias := router.Group("/materia-prima", transport.RequireFeature(domain.FeatureMaterias))
	materias.Get("/", h.ListMateriasPrimas)
	materias.Post("/", h.CreateMateriaPrima)
	materias.Get("/:id", h.GetMateriaPrima)
	materias.Put("/:id", h.UpdateMateriaPrima)
	materias.Delete("/:id", h.DeleteMateriaPrima)

	maquinas := router.Group("/maquinas", transport.RequireFeature(domain.FeatureMaquinas))
	maquinas.Get("/", h.ListMaquinas)
	maquinas.Post("/", h.CreateMaquina)
	maquinas.Get("/:id", h.GetMaquina)
	maquinas.Put("/:id", h.UpdateMaquina)
	maquinas.Delete("/:id", h.DeleteMaquina)

	procesos := router.Group("/procesos", transport.RequireFeature(domain.FeatureProcesos))
	procesos.Get("/", h.ListProcesos)
	procesos.Post("/", h.CreateProceso)
	procesos.Get("/:id", h.GetProceso)
	procesos.Delete("/:id", h.DeleteProceso)

	return nil
}

type materiaPrimaRequest struct {
	Nombre      string          `json:"Nombre"`
	Descripcion string          `json:"Descripcion"`
	Cantidad    decimal.Decimal `json:"Cantidad"`
	Unidad      string          `json:"Unidad"`
}

type materiaPrimaResponse struct {
	IdMateriaPrima int64           `json:"IdMateriaPrima"`
	Nombre         string          `json:"Nombre"`
	Descripcion    string          `json:"Descripcion,omitempty"`
	Cantidad       decimal.Decimal `json:"Cantidad"`
	Unidad         string          `json:"Unidad,omitempty"`
}

// The mobile client posts máquinas with lowercase keys, unlike the rest of
// the API.
type maquinaRequest struct {
	Nombre    string `json:"nombre"`
	ImagenURL string `json:"imagenUrl"`
}

type maquinaResponse struct {
	IdMaquina int64  `json:"IdMaquina"`
	Nombre    string `json:"Nombre"`
	ImagenURL string `json:"ImagenUrl,omitempty"`
}

type variableDefRequest struct {
	Nombre string          `json:"nombre"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
}

type procesoPasoRequest struct {
	Numero    int                  `json:"Numero"`
	Nombre    string               `json:"Nombre"`
	Imagen    string               `json:"Imagen"`
	Variables []variableDefRequest `json:"variables"`
}

type createProcesoRequest struct {
	Nombre      string               `json:"Nombre"`
	Descripcion string               `json:"Descripcion"`
	Maquinas    []procesoPasoRequest `json:"Maquinas"`
}

type variableDefResponse struct {
	Nombre string          `json:"nombre"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
}

type procesoPasoResponse struct {
	Numero    int                   `json:"Numero"`
	Nombre    string                `json:"Nombre"`
	Imagen    string                `json:"Imagen,omitempty"`
	Variables []variableDefResponse `json:"variables"`
}

type procesoResponse struct {
	IdProceso   int64                 `json:"IdProceso"`
	Nombre      string                `json:"Nombre"`
	Descripcion string                `json:"Descripcion,omitempty"`
	Maquinas    []procesoPasoResponse `json:"Maquinas"`
}

func (h *CatalogHandler) CreateMateriaPrima(c *fiber.Ctx) error {
	var req materiaPrimaRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	materia, err := h.service.CreateMateriaPrima(c.Context(), &domain.MateriaPrima{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Cantidad:    req.Cantidad,
		Unidad:      req.Unidad,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMateriaPrimaResponse(materia))
}

func (h *CatalogHandler) GetMateriaPrima(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	materia, err := h.service.GetMateriaPrima(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toMateriaPrimaResponse(materia))
}

func (h *CatalogHandler) ListMateriasPrimas(c *fiber.Ctx) error {
	materias, err := h.service.ListMateriasPrimas(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]materiaPrimaResponse, 0, len(materias))
	for i := range materias {
		responses = append(responses, toMateriaPrimaResponse(&materias[i]))
	}
	return c.Status(fiber.StatusOK).JSON(responses)
}

func (h *CatalogHandler) UpdateMateriaPrima(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req materiaPrimaRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	materia, err := h.service.UpdateMateriaPrima(c.Context(), &domain.MateriaPrima{
		ID:          id,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Cantidad:    req.Cantidad,
		Unidad:      req.Unidad,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toMateriaPrimaResponse(materia))
}

func (h *CatalogHandler) DeleteMateriaPrima(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteMateriaPrima(c.Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) CreateMaquina(c *fiber.Ctx) error {
	var req maquinaRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	maquina, err := h.service.CreateMaquina(c.Context(), &domain.Maquina{
		Nombre: req.Nombre,
		Imagen: strings.TrimSpace(req.ImagenURL),
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMaquinaResponse(maquina))
}

func (h *CatalogHandler) GetMaquina(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	maquina, err := h.service.GetMaquina(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toMaquinaResponse(maquina))
}

func (h *CatalogHandler) ListMaquinas(c *fiber.Ctx) error {
	maquinas, err := h.service.ListMaquinas(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]maquinaResponse, 0, len(maquinas))
	for i := range maquinas {
		responses = append(responses, toMaquinaResponse(&maquinas[i]))
	}
	return c.Status(fiber.StatusOK).JSON(responses)
}

func (h *CatalogHandler) UpdateMaquina(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req maquinaRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	maquina, err := h.service.UpdateMaquina(c.Context(), &domain.Maquina{
		ID:     id,
		Nombre: req.Nombre,
		Imagen: strings.TrimSpace(req.ImagenURL),
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toMaquinaResponse(maquina))
}

func (h *CatalogHandler) DeleteMaquina(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteMaquina(c.Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) CreateProceso(c *fiber.Ctx) error {
	var req createProcesoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	pasos := make([]domain.MaquinaPaso, 0, len(req.Maquinas))
	for _, paso := range req.Maquinas {
		variables := make([]domain.VariableDef, 0, len(paso.Variables))
		for _, variable := range paso.Variables {
			variables = append(variables, domain.VariableDef{
				Nombre: strings.TrimSpace(variable.Nombre),
				Min:    variable.Min,
				Max:    variable.Max,
			})
		}
		pasos = append(pasos, domain.MaquinaPaso{
			Numero:    paso.Numero,
			Nombre:    strings.TrimSpace(paso.Nombre),
			Imagen:    strings.TrimSpace(paso.Imagen),
			Variables: variables,
		})
	}

	proceso, err := h.service.CreateProceso(c.Context(), &domain.Proceso{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Pasos:       pasos,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toProcesoResponse(proceso))
}

func (h *CatalogHandler) GetProceso(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	proceso, err := h.service.GetProceso(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toProcesoResponse(proceso))
}

func (h *CatalogHandler) ListProcesos(c *fiber.Ctx) error {
	procesos, err := h.service.ListProcesos(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]procesoResponse, 0, len(procesos))
	for i := range procesos {
		responses = append(responses, toProcesoResponse(&procesos[i]))
	}
	return c.Status(fiber.StatusOK).JSON(responses)
}

func (h *CatalogHandler) DeleteProceso(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteProceso(c.Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toMateriaPrimaResponse(materia *domain.MateriaPrima) materiaPrimaResponse {
	if materia == nil {
		return materiaPrimaResponse{}
	}
	return materiaPrimaResponse{
		IdMateriaPrima: materia.ID,
		Nombre:         materia.Nombre,
		Descripcion:    materia.Descripcion,
		Cantidad:       materia.Cantidad,
		Unidad:         materia.Unidad,
	}
}

func toMaquinaResponse(maquina *domain.Maquina) maquinaResponse {
	if maquina == nil {
		return maquinaResponse{}
	}
	return maquinaResponse{
		IdMaquina: maquina.ID,
		Nombre:    maquina.Nombre,
		ImagenURL: maquina.Imagen,
	}
}

func toProcesoResponse(proceso *domain.Proceso) procesoResponse {
	if proceso == nil {
		return procesoResponse{}
	}

	maquinas := make([]procesoPasoResponse, 0, len(proceso.Pasos))
	for _, paso := range proceso.Pasos {
		variables := make([]variableDefResponse, 0, len(paso.Variables))
		for _, variable := range paso.Variables {
			variables = append(variables, variableDefResponse{
				Nombre: variable.Nombre,
				Min:    variable.Min,
				Max:    variable.Max,
			})
		}
		maquinas = append(maquinas, procesoPasoResponse{
			Numero:    paso.Numero,
			Nombre:    paso.Nombre,
			Imagen:    paso.Imagen,
			Variables: variables,
		})
	}

	return procesoResponse{
		IdProceso:   proceso.ID,
		Nombre:      proceso.Nombre,
		Descripcion: proceso.Descripcion,
		Maquinas:    maquinas,
	}
}
